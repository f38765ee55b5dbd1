package extract

import (
	"github.com/chazu/lintel/pkg/geom"
	"github.com/chazu/lintel/pkg/ifc"
)

// FindOpenings returns the voids cut into e (its HasOpenings relations),
// each with its own resolved placement and solids. Openings without any
// extractable solid are dropped.
func (x *Extractor) FindOpenings(e *ifc.Entity) []geom.OpeningGeometry {
	var out []geom.OpeningGeometry
	for _, rel := range x.model.Inverse(e, "IfcRelVoidsElement", "RelatingBuildingElement") {
		opening := rel.Ref("RelatedOpeningElement")
		if opening == nil {
			continue
		}
		solids, _ := x.ProductSolids(opening)
		if len(solids) == 0 {
			continue
		}
		out = append(out, geom.OpeningGeometry{
			GlobalID:        opening.GlobalID(),
			Name:            opening.Name(),
			ObjectPlacement: x.ResolvePlacement(opening),
			Solids:          solids,
		})
	}
	return out
}
