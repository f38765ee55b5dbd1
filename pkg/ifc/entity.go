package ifc

import "fmt"

// Entity is one instance line of a model (#id=TYPE(...)).
type Entity struct {
	ID    int
	Type  string
	Attrs []Value

	model *Model
}

func (e *Entity) String() string {
	return fmt.Sprintf("#%d=%s", e.ID, e.Type)
}

// IsA reports whether the entity is of type t or one of its subtypes.
func (e *Entity) IsA(t string) bool {
	if e == nil {
		return false
	}
	return isSubtype(e.Type, t)
}

// At returns the attribute at position i, or Null when out of range.
func (e *Entity) At(i int) Value {
	if e == nil || i < 0 || i >= len(e.Attrs) {
		return Null{}
	}
	v := e.Attrs[i]
	if v == nil {
		return Null{}
	}
	return v
}

// Attr returns the attribute with the given schema name, or Null if the
// type has no such attribute or the value is unset.
func (e *Entity) Attr(name string) Value {
	if e == nil {
		return Null{}
	}
	return e.At(attrIndex(e.Type, name))
}

// Has reports whether the named attribute is set.
func (e *Entity) Has(name string) bool {
	return !IsNull(e.Attr(name))
}

// Ref resolves a single entity reference attribute.
func (e *Entity) Ref(name string) *Entity {
	r, ok := e.Attr(name).(Ref)
	if !ok || e.model == nil {
		return nil
	}
	return e.model.Entity(int(r))
}

// Refs resolves an aggregate of entity references. Unresolvable members
// are skipped.
func (e *Entity) Refs(name string) []*Entity {
	return e.resolveList(e.Attr(name))
}

func (e *Entity) resolveList(v Value) []*Entity {
	list, ok := v.(List)
	if !ok || e.model == nil {
		return nil
	}
	out := make([]*Entity, 0, len(list))
	for _, item := range list {
		if r, ok := item.(Ref); ok {
			if target := e.model.Entity(int(r)); target != nil {
				out = append(out, target)
			}
		}
	}
	return out
}

// Float returns a numeric attribute.
func (e *Entity) Float(name string) (float64, bool) {
	return Number(e.Attr(name))
}

// Floats returns an aggregate of numbers. Non-numeric members stop the
// conversion and yield nil.
func (e *Entity) Floats(name string) []float64 {
	return floats(e.Attr(name))
}

func floats(v Value) []float64 {
	list, ok := v.(List)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(list))
	for _, item := range list {
		f, ok := Number(item)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}

// FloatLists returns a list of number lists, as used by point lists.
func (e *Entity) FloatLists(name string) [][]float64 {
	list, ok := e.Attr(name).(List)
	if !ok {
		return nil
	}
	out := make([][]float64, 0, len(list))
	for _, item := range list {
		if row := floats(item); row != nil {
			out = append(out, row)
		}
	}
	return out
}

// Str returns a string attribute, unwrapping defined types. Unset and
// non-string attributes return "".
func (e *Entity) Str(name string) string {
	switch v := e.Attr(name).(type) {
	case String:
		return string(v)
	case Typed:
		if s, ok := v.Value.(String); ok {
			return string(s)
		}
	}
	return ""
}

// Enum returns an enumeration attribute without the surrounding dots.
func (e *Entity) Enum(name string) string {
	if v, ok := e.Attr(name).(Enum); ok {
		return string(v)
	}
	return ""
}

// GlobalID returns the GlobalId attribute of rooted entities.
func (e *Entity) GlobalID() string { return e.Str("GlobalId") }

// Name returns the Name attribute.
func (e *Entity) Name() string { return e.Str("Name") }

// Model returns the model the entity belongs to.
func (e *Entity) Model() *Model { return e.model }
