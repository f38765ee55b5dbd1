// Package filter selects building elements with a small Lisp expression,
// for example
//
//	(and (is-a "IfcWall") (> (qto "NetVolume") 1.5))
//
// Expressions run in a zygomys sandbox with no file or system access. Each
// evaluation gets a fresh environment bound to one element, so a Filter is
// safe for concurrent use. Available builtins: (type), (is-a t), (name),
// (global-id), (storey), (prop key [default]), (has-prop key),
// (qto name [default]) and (has-openings). Keywords (:NetVolume) may be
// used wherever a string key is expected, and ; starts a comment.
package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/lintel/pkg/extract"
	"github.com/chazu/lintel/pkg/ifc"
)

// ErrNotBoolean is returned when an expression yields anything but #t or
// #f.
var ErrNotBoolean = errors.New("filter: expression is not boolean")

// Filter is a compiled selection expression.
type Filter struct {
	source string
	code   string
}

// Compile checks source and returns a Filter for it. Syntax errors come
// back as EvalError with the line when zygomys reports one. Blank source
// yields a nil Filter, which matches everything.
func Compile(source string) (*Filter, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}
	code := rewrite(source)

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	register(env, blank{})
	if err := env.LoadString(code); err != nil {
		return nil, evalError(err)
	}
	return &Filter{source: source, code: code}, nil
}

// String returns the source the filter was compiled from.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Match evaluates the expression against s. It gives up after EvalTimeout
// or when ctx is done.
func (f *Filter) Match(ctx context.Context, s Subject) (bool, error) {
	if f == nil {
		return true, nil
	}

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("filter: panic during evaluation: %v", r)}
			}
		}()
		ok, err := f.eval(s)
		ch <- evalResult{ok: ok, err: err}
	}()
	return wait(ctx, ch)
}

func (f *Filter) eval(s Subject) (bool, error) {
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	register(env, s)

	if err := env.LoadString(f.code); err != nil {
		return false, evalError(err)
	}
	res, err := env.Run()
	if err != nil {
		return false, evalError(err)
	}
	b, ok := res.(*zygo.SexpBool)
	if !ok {
		return false, fmt.Errorf("%w: got %s", ErrNotBoolean, res.SexpString(nil))
	}
	return b.Val, nil
}

// Select returns the entities of elems that match, in order. The first
// evaluation error stops the selection.
func (f *Filter) Select(ctx context.Context, x *extract.Extractor, elems []*ifc.Entity) ([]*ifc.Entity, error) {
	if f == nil {
		return elems, nil
	}
	var out []*ifc.Entity
	for _, e := range elems {
		ok, err := f.Match(ctx, Element(x, e))
		if err != nil {
			return nil, fmt.Errorf("filter: %s #%d: %w", e.Type, e.ID, err)
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}
