// Package geom holds the parametric geometry records recovered from a
// building model: placements, 4x4 transforms, profiles and extruded solids.
// All values are read-only snapshots; nothing here refers back to the model.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Global axes used as placement defaults.
var (
	XAxis = mgl64.Vec3{1, 0, 0}
	YAxis = mgl64.Vec3{0, 1, 0}
	ZAxis = mgl64.Vec3{0, 0, 1}
)

// degenerate is the length below which a direction counts as zero.
const degenerate = 1e-12

// Placement is a local coordinate frame: an origin, a local Z (Axis) and a
// local X (RefDirection). A zero Axis or RefDirection means "use the
// default", i.e. global Z or global X.
type Placement struct {
	Location     mgl64.Vec3
	Axis         mgl64.Vec3
	RefDirection mgl64.Vec3
}

// DefaultPlacement is the identity frame at the origin.
func DefaultPlacement() Placement {
	return Placement{Axis: ZAxis, RefDirection: XAxis}
}

// Pad3 widens a 2 or 3 component coordinate list into a vector, padding
// missing components with zero.
func Pad3(c []float64) mgl64.Vec3 {
	var v mgl64.Vec3
	for i := 0; i < len(c) && i < 3; i++ {
		v[i] = c[i]
	}
	return v
}

// NormalizeOr returns v scaled to unit length, or fallback when v has no
// usable length.
func NormalizeOr(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < degenerate || math.IsNaN(l) || math.IsInf(l, 0) {
		return fallback
	}
	return v.Mul(1 / l)
}

// Frame returns the orthonormal basis of the placement. Axis is kept as Z,
// Y is Z cross RefDirection and X is recomputed as Y cross Z so that a
// RefDirection not perpendicular to Axis still yields a proper rotation.
// When Axis and RefDirection are parallel Y falls back to global Y.
func (p Placement) Frame() (x, y, z mgl64.Vec3) {
	z = NormalizeOr(p.Axis, ZAxis)
	ref := NormalizeOr(p.RefDirection, XAxis)
	y = NormalizeOr(z.Cross(ref), YAxis)
	x = y.Cross(z)
	return x, y, z
}

// Rotation returns the placement's rotation as a transform without
// translation.
func (p Placement) Rotation() Transform {
	x, y, z := p.Frame()
	return Transform(mgl64.Mat4FromCols(x.Vec4(0), y.Vec4(0), z.Vec4(0), mgl64.Vec4{0, 0, 0, 1}))
}

// Matrix returns the full placement transform: columns 0-2 are the local
// X, Y and Z axes, column 3 the location.
func (p Placement) Matrix() Transform {
	m := mgl64.Mat4(p.Rotation())
	m.SetCol(3, p.Location.Vec4(1))
	return Transform(m)
}
