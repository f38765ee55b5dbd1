package filter

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// register binds the element builtins to s. Names are snake_case; source
// written in kebab-case reaches them through rewrite.
func register(env *zygo.Zlisp, s Subject) {
	str := func(get func() string) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 0 {
				return zygo.SexpNull, fmt.Errorf("%s: takes no arguments", name)
			}
			return &zygo.SexpStr{S: get()}, nil
		}
	}

	// (type) (name) (global-id) (storey)
	env.AddFunction("type", str(s.Type))
	env.AddFunction("name", str(s.Name))
	env.AddFunction("global_id", str(s.GlobalID))
	env.AddFunction("storey", str(s.Storey))

	// (is-a "IfcWall") also matches subtypes.
	env.AddFunction("is_a", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("is-a: want 1 argument, got %d", len(args))
		}
		t, err := keyword(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("is-a: %w", err)
		}
		return &zygo.SexpBool{Val: s.IsA(t)}, nil
	})

	// (prop "Pset_WallCommon.FireRating" [default])
	env.AddFunction("prop", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		key, def, err := lookupArgs("prop", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		v, ok := s.Property(key)
		if !ok {
			return def, nil
		}
		return toSexp(v), nil
	})

	// (has-prop "Pset_WallCommon.IsExternal")
	env.AddFunction("has_prop", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		key, _, err := lookupArgs("has-prop", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		_, ok := s.Property(key)
		return &zygo.SexpBool{Val: ok}, nil
	})

	// (qto "NetVolume" [default]); a missing quantity without a default
	// is 0.
	env.AddFunction("qto", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		key, def, err := lookupArgs("qto", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		v, ok := s.Quantity(key)
		if !ok {
			if def == zygo.SexpNull {
				return &zygo.SexpFloat{Val: 0}, nil
			}
			return def, nil
		}
		return &zygo.SexpFloat{Val: v}, nil
	})

	// (has-openings)
	env.AddFunction("has_openings", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpBool{Val: s.Openings() > 0}, nil
	})
}

// lookupArgs parses (f key [default]).
func lookupArgs(fn string, args []zygo.Sexp) (string, zygo.Sexp, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", zygo.SexpNull, fmt.Errorf("%s: want 1 or 2 arguments, got %d", fn, len(args))
	}
	key, err := keyword(args[0])
	if err != nil {
		return "", zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
	}
	if len(args) == 2 {
		return key, args[1], nil
	}
	return key, zygo.SexpNull, nil
}

// keyword accepts "name" or :name.
func keyword(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected string or keyword, got %s", s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toSexp(v any) zygo.Sexp {
	switch x := v.(type) {
	case nil:
		return zygo.SexpNull
	case bool:
		return &zygo.SexpBool{Val: x}
	case int64:
		return &zygo.SexpInt{Val: x}
	case int:
		return &zygo.SexpInt{Val: int64(x)}
	case float64:
		return &zygo.SexpFloat{Val: x}
	case string:
		return &zygo.SexpStr{S: x}
	}
	return &zygo.SexpStr{S: fmt.Sprint(v)}
}
