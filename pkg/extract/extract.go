// Package extract recovers parametric geometry and property records from an
// IFC model. It reads only; the model is never modified, so a single
// Extractor may be shared by concurrent workers.
package extract

import (
	"sort"
	"sync"

	"github.com/chazu/lintel/pkg/geom"
	"github.com/chazu/lintel/pkg/ifc"
)

// MaxPlacementDepth bounds the placement chain walk and the unwrapping of
// nested boolean results. Well-formed files stay far below it.
const MaxPlacementDepth = 256

// DefaultElementTypes are the building element types extracted when the
// caller does not configure any.
var DefaultElementTypes = []string{
	"IfcWall", "IfcWallStandardCase", "IfcSlab", "IfcColumn", "IfcBeam",
	"IfcDoor", "IfcWindow", "IfcRoof", "IfcStair", "IfcRailing",
	"IfcCurtainWall", "IfcCovering", "IfcFooting",
}

// Extractor reads geometry and properties from one model.
type Extractor struct {
	model *ifc.Model

	storeyOnce sync.Once
	storeys    []storey
}

// New returns an Extractor over m.
func New(m *ifc.Model) *Extractor {
	return &Extractor{model: m}
}

// Model returns the underlying model.
func (x *Extractor) Model() *ifc.Model { return x.model }

// Elements collects the instances of the given types (subtypes included),
// each once, ordered by entity id. An empty list selects DefaultElementTypes.
func (x *Extractor) Elements(types []string) []*ifc.Entity {
	if len(types) == 0 {
		types = DefaultElementTypes
	}
	return x.model.Collect(types...)
}

// ExtractElement gathers an element's placement, body solids and openings.
// Elements without a usable representation yield empty Solids; that is not
// an error.
func (x *Extractor) ExtractElement(e *ifc.Entity) geom.ElementGeometry {
	solids, skipped := x.ProductSolids(e)
	return geom.ElementGeometry{
		EntityID:        e.ID,
		ElementType:     e.Type,
		GlobalID:        e.GlobalID(),
		Name:            e.Name(),
		ObjectPlacement: x.ResolvePlacement(e),
		Solids:          solids,
		Openings:        x.FindOpenings(e),
		SkippedItems:    skipped,
	}
}

// ExtractAll extracts every element of the given types.
func (x *Extractor) ExtractAll(types []string) []geom.ElementGeometry {
	elems := x.Elements(types)
	out := make([]geom.ElementGeometry, 0, len(elems))
	for _, e := range elems {
		out = append(out, x.ExtractElement(e))
	}
	return out
}

// Summary counts extracted elements per type.
type Summary struct {
	Type     string
	Elements int
	Solids   int
	Openings int
	Boolean  int
	Skipped  int
}

// Summarize groups element geometry by type, sorted by type name.
func Summarize(elems []geom.ElementGeometry) []Summary {
	byType := make(map[string]*Summary)
	for _, e := range elems {
		s, ok := byType[e.ElementType]
		if !ok {
			s = &Summary{Type: e.ElementType}
			byType[e.ElementType] = s
		}
		s.Elements++
		s.Solids += len(e.Solids)
		s.Openings += len(e.Openings)
		s.Skipped += len(e.SkippedItems)
		if e.HasBoolean() {
			s.Boolean++
		}
	}
	out := make([]Summary, 0, len(byType))
	for _, s := range byType {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
