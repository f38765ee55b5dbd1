package filter

import (
	"context"
	"fmt"
	"time"
)

// EvalTimeout is the hard limit for evaluating one element.
const EvalTimeout = 2 * time.Second

type evalResult struct {
	ok  bool
	err error
}

// wait returns the first of: the evaluation result, the timeout, or ctx
// being done. On timeout the evaluating goroutine keeps running until it
// finishes; ch is buffered so it never blocks.
func wait(ctx context.Context, ch <-chan evalResult) (bool, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.ok, res.err
	case <-timer.C:
		return false, fmt.Errorf("filter: evaluation timed out after %s", EvalTimeout)
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
