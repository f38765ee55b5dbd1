package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CircleSegments is the number of samples used to approximate a circle
// profile. The vertex list carries one more, closing, sample.
const CircleSegments = 32

// ProfileKind identifies a profile variant.
type ProfileKind int

const (
	KindUnsupported ProfileKind = iota
	KindRectangle
	KindCircle
	KindPolygon
	KindIShape
)

func (k ProfileKind) String() string {
	switch k {
	case KindRectangle:
		return "rectangle"
	case KindCircle:
		return "circle"
	case KindPolygon:
		return "polygon"
	case KindIShape:
		return "ishape"
	}
	return "unsupported"
}

// Profile is the 2D cross-section of an extruded solid. It is a closed sum
// type: Rectangle, Circle, Polygon, IShape and Unsupported.
type Profile interface {
	Kind() ProfileKind
	// SourceType is the IFC type the profile was read from.
	SourceType() string
	// Vertices returns the outline in the profile's XY plane. Closed
	// outlines repeat the first vertex at the end. Parameter-only profiles
	// return nil.
	Vertices() []mgl64.Vec2

	isProfile()
}

// Rectangle is a width x height rectangle centered at the origin.
type Rectangle struct {
	Type   string
	Name   string
	Width  float64
	Height float64
}

// Circle is a circle of the given radius centered at the origin.
type Circle struct {
	Type   string
	Name   string
	Radius float64
}

// Polygon is an arbitrary outline, kept verbatim from its source curve.
type Polygon struct {
	Type   string
	Name   string
	Points []mgl64.Vec2
}

// IShape carries I-section parameters only; it has no outline.
type IShape struct {
	Type            string
	Name            string
	OverallWidth    float64
	OverallDepth    float64
	WebThickness    float64
	FlangeThickness float64
}

// Unsupported stands for a profile or curve kind that is not recognized.
type Unsupported struct {
	Type string
	Name string
}

func (Rectangle) Kind() ProfileKind   { return KindRectangle }
func (Circle) Kind() ProfileKind      { return KindCircle }
func (Polygon) Kind() ProfileKind     { return KindPolygon }
func (IShape) Kind() ProfileKind      { return KindIShape }
func (Unsupported) Kind() ProfileKind { return KindUnsupported }

func (r Rectangle) SourceType() string   { return r.Type }
func (c Circle) SourceType() string      { return c.Type }
func (p Polygon) SourceType() string     { return p.Type }
func (s IShape) SourceType() string      { return s.Type }
func (u Unsupported) SourceType() string { return u.Type }

func (Rectangle) isProfile()   {}
func (Circle) isProfile()      {}
func (Polygon) isProfile()     {}
func (IShape) isProfile()      {}
func (Unsupported) isProfile() {}

func (r Rectangle) Vertices() []mgl64.Vec2 {
	hw, hh := r.Width/2, r.Height/2
	return []mgl64.Vec2{
		{-hw, -hh},
		{hw, -hh},
		{hw, hh},
		{-hw, hh},
		{-hw, -hh},
	}
}

func (c Circle) Vertices() []mgl64.Vec2 {
	out := make([]mgl64.Vec2, 0, CircleSegments+1)
	for i := 0; i <= CircleSegments; i++ {
		a := 2 * math.Pi * float64(i) / CircleSegments
		out = append(out, mgl64.Vec2{c.Radius * math.Cos(a), c.Radius * math.Sin(a)})
	}
	return out
}

func (p Polygon) Vertices() []mgl64.Vec2 {
	return append([]mgl64.Vec2(nil), p.Points...)
}

func (IShape) Vertices() []mgl64.Vec2      { return nil }
func (Unsupported) Vertices() []mgl64.Vec2 { return nil }
