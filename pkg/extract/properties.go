package extract

import (
	"strings"

	"github.com/samber/lo"

	"github.com/chazu/lintel/pkg/ifc"
)

// quantityValueAttr names the value attribute of each simple quantity type.
var quantityValueAttr = map[string]string{
	"IfcQuantityLength": "LengthValue",
	"IfcQuantityArea":   "AreaValue",
	"IfcQuantityVolume": "VolumeValue",
	"IfcQuantityCount":  "CountValue",
	"IfcQuantityWeight": "WeightValue",
	"IfcQuantityTime":   "TimeValue",
}

// CoveringSuffix is appended to quantity names taken from a wall's
// coverings so they do not collide with the wall's own quantities.
const CoveringSuffix = "_Covering"

// Properties returns the flat property record of an element: identity
// fields, "<Pset>.<Property>" entries for single-value properties, the
// quantities of Qto_ quantity sets, covering quantities for walls, and the
// element's storey. Later definitions overwrite earlier ones with the same
// key.
func (x *Extractor) Properties(e *ifc.Entity) map[string]any {
	props := map[string]any{
		"GlobalId":    e.GlobalID(),
		"Name":        nullable(e.Name()),
		"Description": nullable(e.Str("Description")),
		"ObjectType":  nullable(e.Str("ObjectType")),
		"Tag":         nullable(e.Str("Tag")),
		"Type":        e.Type,
	}

	for _, def := range x.definitions(e) {
		switch {
		case def.IsA("IfcPropertySet"):
			for k, v := range propertySet(def) {
				props[k] = v
			}
		case def.IsA("IfcElementQuantity") && isQtoSet(def):
			for k, v := range quantities(def) {
				props[k] = v
			}
		}
	}

	if e.IsA("IfcWall") {
		for k, v := range x.CoveringQuantities(e) {
			props[k] = v
		}
	}

	props["Storey"] = x.Storey(e)
	return props
}

// Quantities returns only the Qto_ quantity values of an element.
func (x *Extractor) Quantities(e *ifc.Entity) map[string]float64 {
	out := make(map[string]float64)
	for _, def := range x.definitions(e) {
		if def.IsA("IfcElementQuantity") && isQtoSet(def) {
			for k, v := range quantities(def) {
				out[k] = v
			}
		}
	}
	return out
}

// CoveringQuantities collects the Qto_ quantities of the coverings attached
// to a building element through IfcRelCoversBldgElements. Names carry
// CoveringSuffix; values of several coverings with the same quantity name
// are summed.
func (x *Extractor) CoveringQuantities(e *ifc.Entity) map[string]float64 {
	rels := x.model.Inverse(e, "IfcRelCoversBldgElements", "RelatingBuildingElement")
	coverings := lo.FlatMap(rels, func(rel *ifc.Entity, _ int) []*ifc.Entity {
		return rel.Refs("RelatedCoverings")
	})
	out := make(map[string]float64)
	for _, c := range lo.UniqBy(coverings, func(c *ifc.Entity) int { return c.ID }) {
		for k, v := range x.Quantities(c) {
			out[k+CoveringSuffix] += v
		}
	}
	return out
}

// definitions returns the property definitions related to e through
// IfcRelDefinesByProperties.
func (x *Extractor) definitions(e *ifc.Entity) []*ifc.Entity {
	rels := x.model.Inverse(e, "IfcRelDefinesByProperties", "RelatedObjects")
	defs := lo.Map(rels, func(rel *ifc.Entity, _ int) *ifc.Entity {
		return rel.Ref("RelatingPropertyDefinition")
	})
	return lo.Compact(defs)
}

func isQtoSet(def *ifc.Entity) bool {
	return strings.HasPrefix(def.Name(), "Qto_")
}

func propertySet(pset *ifc.Entity) map[string]any {
	out := make(map[string]any)
	for _, prop := range pset.Refs("HasProperties") {
		if !prop.IsA("IfcPropertySingleValue") {
			continue
		}
		v := prop.Attr("NominalValue")
		if ifc.IsNull(v) {
			continue
		}
		out[pset.Name()+"."+prop.Name()] = ifc.Native(v)
	}
	return out
}

func quantities(qto *ifc.Entity) map[string]float64 {
	out := make(map[string]float64)
	for _, q := range qto.Refs("Quantities") {
		attr, ok := quantityValueAttr[q.Type]
		if !ok {
			continue
		}
		if v, ok := q.Float(attr); ok {
			out[q.Name()] = v
		}
	}
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
