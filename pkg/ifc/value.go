package ifc

import (
	"fmt"
	"strings"
)

// Value is a single attribute value of an entity instance. It is a closed
// sum type; the concrete kinds are listed below.
type Value interface {
	isValue()
	String() string
}

// Null is an unset optional attribute ($).
type Null struct{}

// Derived is an attribute whose value is derived by the schema (*).
type Derived struct{}

// Ref references another entity instance by its file-local id (#123).
type Ref int

// Int is an integer literal.
type Int int64

// Real is a floating point literal.
type Real float64

// String is a decoded string literal.
type String string

// Enum is an enumeration literal such as .T. or .ELEMENT.
type Enum string

// List is an aggregate value.
type List []Value

// Typed wraps a value in a defined type, e.g. IFCLABEL('x').
type Typed struct {
	Type  string
	Value Value
}

func (Null) isValue()    {}
func (Derived) isValue() {}
func (Ref) isValue()     {}
func (Int) isValue()     {}
func (Real) isValue()    {}
func (String) isValue()  {}
func (Enum) isValue()    {}
func (List) isValue()    {}
func (Typed) isValue()   {}

func (Null) String() string     { return "$" }
func (Derived) String() string  { return "*" }
func (r Ref) String() string    { return fmt.Sprintf("#%d", int(r)) }
func (i Int) String() string    { return fmt.Sprintf("%d", int64(i)) }
func (r Real) String() string   { return fmt.Sprintf("%g", float64(r)) }
func (s String) String() string { return string(s) }
func (e Enum) String() string   { return "." + string(e) + "." }

func (l List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func (t Typed) String() string {
	return t.Type + "(" + t.Value.String() + ")"
}

// IsNull reports whether v is missing or unset.
func IsNull(v Value) bool {
	switch v.(type) {
	case nil, Null, Derived:
		return true
	}
	return false
}

// Number returns the numeric content of v, unwrapping defined types.
func Number(v Value) (float64, bool) {
	switch x := v.(type) {
	case Real:
		return float64(x), true
	case Int:
		return float64(x), true
	case Typed:
		return Number(x.Value)
	}
	return 0, false
}

// Native converts v into a plain Go value for property records: float64,
// int64, string, bool, []any or nil.
func Native(v Value) any {
	switch x := v.(type) {
	case Real:
		return float64(x)
	case Int:
		return int64(x)
	case String:
		return string(x)
	case Enum:
		switch x {
		case "T":
			return true
		case "F":
			return false
		case "U":
			return nil
		}
		return string(x)
	case Typed:
		return Native(x.Value)
	case List:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Native(item)
		}
		return out
	case Ref:
		return x.String()
	}
	return nil
}
