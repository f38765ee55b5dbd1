package extract

import (
	"github.com/chazu/lintel/pkg/geom"
	"github.com/chazu/lintel/pkg/ifc"
)

// ResolvePlacement composes the element's ObjectPlacement chain into one
// transform taking local coordinates to world coordinates. Each link's
// relative placement is pre-multiplied while walking outward, so the
// outermost frame ends up leftmost. A missing placement gives the identity.
// The walk stops at a link that is not an IfcLocalPlacement, at a repeated
// link, or after MaxPlacementDepth links, returning what was accumulated.
func (x *Extractor) ResolvePlacement(e *ifc.Entity) geom.Transform {
	total := geom.Identity()
	link := e.Ref("ObjectPlacement")
	visited := make(map[int]bool)

	for steps := 0; link != nil && steps < MaxPlacementDepth; steps++ {
		if !link.IsA("IfcLocalPlacement") || visited[link.ID] {
			break
		}
		visited[link.ID] = true

		if local, ok := relativeTransform(link.Ref("RelativePlacement")); ok {
			total = local.Mul(total)
		}
		link = link.Ref("PlacementRelTo")
	}
	return total
}

// relativeTransform converts an IfcAxis2Placement3D or IfcAxis2Placement2D.
// A 2D placement contributes its X/Y translation only.
func relativeTransform(rel *ifc.Entity) (geom.Transform, bool) {
	switch {
	case rel.IsA("IfcAxis2Placement3D"):
		return Placement3D(rel).Matrix(), true
	case rel.IsA("IfcAxis2Placement2D"):
		loc := point(rel.Ref("Location"))
		loc[2] = 0
		return geom.Translation(loc), true
	}
	return geom.Transform{}, false
}

// Placement3D reads an IfcAxis2Placement3D. A nil entity gives the default
// placement; missing Axis and RefDirection stay zero and fall back to
// global Z and X when the frame is built.
func Placement3D(p *ifc.Entity) geom.Placement {
	if p == nil {
		return geom.DefaultPlacement()
	}
	return geom.Placement{
		Location:     point(p.Ref("Location")),
		Axis:         direction(p.Ref("Axis")),
		RefDirection: direction(p.Ref("RefDirection")),
	}
}
