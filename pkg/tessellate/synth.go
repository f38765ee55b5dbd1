package tessellate

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/lintel/pkg/geom"
	"github.com/chazu/lintel/pkg/kernel"
)

// SolidMesh is the result of synthesizing one solid. Mesh is nil unless
// Outcome.Produced().
type SolidMesh struct {
	Mesh    *kernel.Mesh
	Outcome Outcome
	Err     error
}

// Synthesize extrudes a solid's profile along local +Z by its depth, then
// rotates the prism by the orthogonalized frame of the solid's position and
// translates it to the position's location. The prism shares vertex
// indices between caps and walls, so it is closed. A profile with fewer
// than three vertices, a ring that is not a simple polygon with area, or a
// non-positive depth yields no mesh. Panics are recovered as
// OutcomeInvalidPolygon.
func Synthesize(s geom.SolidGeometry) (out SolidMesh) {
	defer func() {
		if r := recover(); r != nil {
			out = SolidMesh{Outcome: OutcomeInvalidPolygon, Err: panicError(r)}
		}
	}()

	if s.Profile == nil {
		return SolidMesh{Outcome: OutcomeNoProfile}
	}
	verts := s.Profile.Vertices()
	if len(verts) < 3 {
		return SolidMesh{Outcome: OutcomeNoProfile}
	}
	if s.Depth <= 0 {
		return SolidMesh{Outcome: OutcomeDegenerateDepth}
	}

	pts, err := ring(verts)
	if err != nil {
		return SolidMesh{Outcome: OutcomeInvalidPolygon, Err: err}
	}
	tris, err := earClip(pts)
	if err != nil {
		return SolidMesh{Outcome: OutcomeInvalidPolygon, Err: err}
	}

	m := prism(pts, tris, s.Depth).Transform(s.Position.Matrix())
	m.ComputeNormals()

	outcome := OutcomeOK
	if oblique(s.ExtrusionDirection) {
		outcome = OutcomeObliqueIgnored
	}
	return SolidMesh{Mesh: m, Outcome: outcome}
}

// prism builds the extrusion of a counter-clockwise ring: vertices
// [0,n) form the bottom ring at z=0 and [n,2n) the top ring at z=depth.
func prism(pts []mgl64.Vec2, tris [][3]int, depth float64) *kernel.Mesh {
	n := len(pts)
	m := &kernel.Mesh{
		Vertices: make([]float64, 0, n*6),
		Indices:  make([]uint32, 0, len(tris)*6+n*6),
	}
	for _, z := range []float64{0, depth} {
		for _, p := range pts {
			m.Vertices = append(m.Vertices, p[0], p[1], z)
		}
	}

	top := uint32(n)
	for _, t := range tris {
		a, b, c := uint32(t[0]), uint32(t[1]), uint32(t[2])
		m.Indices = append(m.Indices, a, c, b)             // bottom, facing -Z
		m.Indices = append(m.Indices, a+top, b+top, c+top) // top, facing +Z
	}
	for i := 0; i < n; i++ {
		a, b := uint32(i), uint32((i+1)%n)
		m.Indices = append(m.Indices, a, b, b+top, a, b+top, a+top)
	}
	return m
}

// oblique reports whether dir points anywhere but along +Z. A zero
// direction counts as +Z.
func oblique(dir mgl64.Vec3) bool {
	l := dir.Len()
	if l < 1e-12 {
		return false
	}
	d := dir.Mul(1 / l)
	return d.Sub(geom.ZAxis).Len() > 1e-9
}
