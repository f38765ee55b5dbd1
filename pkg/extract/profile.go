package extract

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/lintel/pkg/geom"
	"github.com/chazu/lintel/pkg/ifc"
)

func point(p *ifc.Entity) mgl64.Vec3 {
	if p == nil {
		return mgl64.Vec3{}
	}
	return geom.Pad3(p.Floats("Coordinates"))
}

func direction(d *ifc.Entity) mgl64.Vec3 {
	if d == nil {
		return mgl64.Vec3{}
	}
	return geom.Pad3(d.Floats("DirectionRatios"))
}

// ExtractProfile turns a profile definition into a geom.Profile. Unknown
// profile types, and arbitrary profiles whose outer curve is neither a
// polyline nor an indexed poly curve, yield geom.Unsupported.
func (x *Extractor) ExtractProfile(def *ifc.Entity) geom.Profile {
	if def == nil {
		return geom.Unsupported{}
	}
	name := def.Str("ProfileName")
	switch {
	case def.IsA("IfcRectangleProfileDef"):
		w, _ := def.Float("XDim")
		h, _ := def.Float("YDim")
		return geom.Rectangle{Type: def.Type, Name: name, Width: w, Height: h}

	case def.IsA("IfcCircleProfileDef"):
		r, _ := def.Float("Radius")
		return geom.Circle{Type: def.Type, Name: name, Radius: r}

	case def.IsA("IfcArbitraryClosedProfileDef"):
		if pts, ok := curvePoints(def.Ref("OuterCurve")); ok {
			return geom.Polygon{Type: def.Type, Name: name, Points: pts}
		}

	case def.IsA("IfcIShapeProfileDef"):
		s := geom.IShape{Type: def.Type, Name: name}
		s.OverallWidth, _ = def.Float("OverallWidth")
		s.OverallDepth, _ = def.Float("OverallDepth")
		s.WebThickness, _ = def.Float("WebThickness")
		s.FlangeThickness, _ = def.Float("FlangeThickness")
		return s
	}
	return geom.Unsupported{Type: def.Type, Name: name}
}

// curvePoints reads the vertices of an IfcPolyline or IfcIndexedPolyCurve in
// file order, without deduplication. 3D coordinates are projected onto the
// profile plane.
func curvePoints(c *ifc.Entity) ([]mgl64.Vec2, bool) {
	switch {
	case c.IsA("IfcPolyline"):
		refs := c.Refs("Points")
		pts := make([]mgl64.Vec2, 0, len(refs))
		for _, p := range refs {
			pts = append(pts, point(p).Vec2())
		}
		return pts, true

	case c.IsA("IfcIndexedPolyCurve"):
		list := c.Ref("Points")
		if list == nil {
			return nil, true
		}
		coords := list.FloatLists("CoordList")
		pts := make([]mgl64.Vec2, 0, len(coords))
		for _, row := range coords {
			pts = append(pts, geom.Pad3(row).Vec2())
		}
		return pts, true
	}
	return nil, false
}
