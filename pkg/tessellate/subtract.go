package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/lintel/pkg/kernel"
)

// Reasons a tool is skipped by Subtract.
var (
	ErrEmptyTool       = errors.New("tessellate: tool mesh is empty")
	ErrToolNotClosed   = errors.New("tessellate: tool mesh is not watertight")
	ErrKernelPanic     = errors.New("tessellate: kernel panicked")
	ErrEmptyDifference = errors.New("tessellate: difference left no geometry")
	ErrOpenDifference  = errors.New("tessellate: difference is not watertight")
)

// ToolFailure records a tool that was skipped and why.
type ToolFailure struct {
	Index int
	Err   error
}

func (f ToolFailure) Error() string {
	return fmt.Sprintf("tool %d: %v", f.Index, f.Err)
}

// SubtractResult is the outcome of subtracting a tool list from a host.
type SubtractResult struct {
	Mesh    *kernel.Mesh
	Applied int
	Skipped []ToolFailure
}

// Subtract removes tools from host in order, host = host - tool. It is
// best effort: a tool that is empty or not watertight, makes the kernel
// fail or panic, or would leave nothing behind is skipped and recorded,
// the host is left as it was for that tool, and the next tool is tried.
// A watertight host also rejects results that are not watertight.
// Tools whose bounds miss the host are counted as applied without calling
// the kernel. With no tools the host is returned as is.
func Subtract(k kernel.Kernel, host *kernel.Mesh, tools []*kernel.Mesh) SubtractResult {
	res := SubtractResult{Mesh: host}
	if len(tools) == 0 || host.IsEmpty() {
		return res
	}
	closed := host.IsWatertight()

	for i, tool := range tools {
		if tool.IsEmpty() {
			res.Skipped = append(res.Skipped, ToolFailure{Index: i, Err: ErrEmptyTool})
			continue
		}
		if !tool.IsWatertight() {
			res.Skipped = append(res.Skipped, ToolFailure{Index: i, Err: ErrToolNotClosed})
			continue
		}
		if !overlaps(res.Mesh, tool) {
			res.Applied++
			continue
		}

		next, err := difference(k, res.Mesh, tool)
		switch {
		case err != nil:
			res.Skipped = append(res.Skipped, ToolFailure{Index: i, Err: err})
		case next.IsEmpty():
			res.Skipped = append(res.Skipped, ToolFailure{Index: i, Err: ErrEmptyDifference})
		case closed && !next.IsWatertight():
			res.Skipped = append(res.Skipped, ToolFailure{Index: i, Err: ErrOpenDifference})
		default:
			res.Mesh = next
			res.Applied++
		}
	}
	return res
}

// difference calls the kernel, turning a panic into an error.
func difference(k kernel.Kernel, a, b *kernel.Mesh) (m *kernel.Mesh, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("%w: %s: %v", ErrKernelPanic, k.Name(), r)
		}
	}()
	return k.Difference(a, b)
}

func overlaps(a, b *kernel.Mesh) bool {
	ba, bb := a.Bounds(), b.Bounds()
	for i := 0; i < 3; i++ {
		if ba.Max[i] < bb.Min[i] || bb.Max[i] < ba.Min[i] {
			return false
		}
	}
	return true
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
