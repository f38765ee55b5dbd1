package geom

import "github.com/go-gl/mathgl/mgl64"

// SolidGeometry is one extruded solid: a profile swept Depth units along
// ExtrusionDirection, positioned by Position.
type SolidGeometry struct {
	Profile            Profile
	Position           Placement
	ExtrusionDirection mgl64.Vec3
	Depth              float64
	// HasBoolean marks a solid taken from the first operand of a boolean
	// clipping result; the clipping itself was not applied.
	HasBoolean bool
}

// OpeningGeometry is a void cut into a host element.
type OpeningGeometry struct {
	GlobalID        string
	Name            string
	ObjectPlacement Transform
	Solids          []SolidGeometry
}

// ElementGeometry is everything recovered about one building element.
type ElementGeometry struct {
	EntityID        int
	ElementType     string
	GlobalID        string
	Name            string
	ObjectPlacement Transform
	Solids          []SolidGeometry
	Openings        []OpeningGeometry
	// SkippedItems lists the types of representation items that carried no
	// extractable extrusion, e.g. IfcFacetedBrep.
	SkippedItems []string
}

// HasBoolean reports whether any solid came from a boolean clipping result.
func (e ElementGeometry) HasBoolean() bool {
	for _, s := range e.Solids {
		if s.HasBoolean {
			return true
		}
	}
	return false
}
