package filter

import (
	"sync"

	"github.com/chazu/lintel/pkg/extract"
	"github.com/chazu/lintel/pkg/ifc"
)

// Subject is what a filter expression can see of one element.
type Subject interface {
	Type() string
	IsA(t string) bool
	Name() string
	GlobalID() string
	Storey() string
	Property(key string) (any, bool)
	Quantity(name string) (float64, bool)
	Openings() int
}

// Element adapts an extracted entity to Subject. Properties and quantities
// are read on first use.
func Element(x *extract.Extractor, e *ifc.Entity) Subject {
	return &element{x: x, e: e}
}

type element struct {
	x *extract.Extractor
	e *ifc.Entity

	once  sync.Once
	props map[string]any
	qtos  map[string]float64
}

func (el *element) load() {
	el.once.Do(func() {
		el.props = el.x.Properties(el.e)
		el.qtos = el.x.Quantities(el.e)
	})
}

func (el *element) Type() string      { return el.e.Type }
func (el *element) IsA(t string) bool { return el.e.IsA(t) }
func (el *element) Name() string      { return el.e.Name() }
func (el *element) GlobalID() string  { return el.e.GlobalID() }
func (el *element) Storey() string    { return el.x.Storey(el.e) }

func (el *element) Property(key string) (any, bool) {
	el.load()
	v, ok := el.props[key]
	return v, ok && v != nil
}

func (el *element) Quantity(name string) (float64, bool) {
	el.load()
	v, ok := el.qtos[name]
	return v, ok
}

func (el *element) Openings() int {
	rels := el.x.Model().Inverse(el.e, "IfcRelVoidsElement", "RelatingBuildingElement")
	return len(rels)
}

// blank is bound while compiling; compilation never calls builtins.
type blank struct{}

func (blank) Type() string                    { return "" }
func (blank) IsA(string) bool                 { return false }
func (blank) Name() string                    { return "" }
func (blank) GlobalID() string                { return "" }
func (blank) Storey() string                  { return "" }
func (blank) Property(string) (any, bool)     { return nil, false }
func (blank) Quantity(string) (float64, bool) { return 0, false }
func (blank) Openings() int                   { return 0 }
