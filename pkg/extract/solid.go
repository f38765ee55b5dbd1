package extract

import (
	"github.com/chazu/lintel/pkg/geom"
	"github.com/chazu/lintel/pkg/ifc"
)

// bodyIdentifiers are the representation identifiers searched for solids,
// in the order a representation is accepted.
var bodyIdentifiers = map[string]bool{"Body": true, "Model": true, "Axis": true}

// ExtractSolid reads an IfcExtrudedAreaSolid, or the first operand of an
// IfcBooleanResult (clipping results included) when that operand chain ends
// in an extrusion. Boolean-derived solids are tagged HasBoolean; the second
// operand is discarded. ok is false for other item kinds and for degenerate
// solids whose depth is missing or not positive.
func (x *Extractor) ExtractSolid(item *ifc.Entity) (s geom.SolidGeometry, ok bool) {
	boolean := false
	for steps := 0; item.IsA("IfcBooleanResult") && steps < MaxPlacementDepth; steps++ {
		item = item.Ref("FirstOperand")
		boolean = true
	}
	if !item.IsA("IfcExtrudedAreaSolid") {
		return geom.SolidGeometry{}, false
	}

	depth, _ := item.Float("Depth")
	if depth <= 0 {
		return geom.SolidGeometry{}, false
	}

	dir := geom.ZAxis
	if d := item.Ref("ExtrudedDirection"); d != nil {
		dir = geom.NormalizeOr(direction(d), geom.ZAxis)
	}

	return geom.SolidGeometry{
		Profile:            x.ExtractProfile(item.Ref("SweptArea")),
		Position:           Placement3D(item.Ref("Position")),
		ExtrusionDirection: dir,
		Depth:              depth,
		HasBoolean:         boolean,
	}, true
}

// BodyRepresentation returns the first shape representation of a product
// whose identifier is Body, Model or Axis.
func (x *Extractor) BodyRepresentation(product *ifc.Entity) *ifc.Entity {
	shape := product.Ref("Representation")
	if shape == nil {
		return nil
	}
	for _, rep := range shape.Refs("Representations") {
		if bodyIdentifiers[rep.Str("RepresentationIdentifier")] {
			return rep
		}
	}
	return nil
}

// ProductSolids extracts every solid of the product's body representation.
// skipped names the types of items that produced no solid.
func (x *Extractor) ProductSolids(product *ifc.Entity) (solids []geom.SolidGeometry, skipped []string) {
	rep := x.BodyRepresentation(product)
	if rep == nil {
		return nil, nil
	}
	for _, item := range rep.Refs("Items") {
		if s, ok := x.ExtractSolid(item); ok {
			solids = append(solids, s)
			continue
		}
		skipped = append(skipped, item.Type)
	}
	return solids, skipped
}
