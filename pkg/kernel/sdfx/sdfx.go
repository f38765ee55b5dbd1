// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Meshes are wrapped as
// signed distance fields, subtracted with sdf.Difference3D and rendered
// back with marching cubes, so results are approximate to one grid cell.
package sdfx

import (
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/lintel/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes resolution along the longest
// axis of the host.
const DefaultMeshCells = 64

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	Cells int
}

// New returns a new SdfxKernel with DefaultMeshCells.
func New() *SdfxKernel {
	return &SdfxKernel{Cells: DefaultMeshCells}
}

// Name implements kernel.Kernel.
func (k *SdfxKernel) Name() string { return "sdfx" }

// Difference returns a minus b, re-tessellated with marching cubes.
func (k *SdfxKernel) Difference(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	if a.IsEmpty() {
		return nil, kernel.ErrEmptyResult
	}
	if b.IsEmpty() {
		return a.Clone(), nil
	}
	cells := k.Cells
	if cells <= 0 {
		cells = DefaultMeshCells
	}

	host := newMeshSDF(a, cells)
	diff := sdf.Difference3D(host, newMeshSDF(b, cells))

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(diff, renderer)
	if len(triangles) == 0 {
		return nil, kernel.ErrEmptyResult
	}

	tris := make([][3]mgl64.Vec3, 0, len(triangles))
	for _, tri := range triangles {
		tris = append(tris, [3]mgl64.Vec3{fromV3(tri[0]), fromV3(tri[1]), fromV3(tri[2])})
	}
	out := kernel.FromTriangles(tris)
	out.PartName = a.PartName
	return out, nil
}

// Triangles converts a mesh to sdfx triangles.
func Triangles(m *kernel.Mesh) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		out = append(out, &sdf.Triangle3{toV3(tri[0]), toV3(tri[1]), toV3(tri[2])})
	}
	return out
}

// SaveSTL writes meshes to a binary STL file.
func SaveSTL(path string, meshes ...*kernel.Mesh) error {
	var tris []*sdf.Triangle3
	for _, m := range meshes {
		if m.IsEmpty() {
			continue
		}
		tris = append(tris, Triangles(m)...)
	}
	return render.SaveSTL(path, tris)
}

func toV3(v mgl64.Vec3) v3.Vec   { return v3.Vec{X: v[0], Y: v[1], Z: v[2]} }
func fromV3(v v3.Vec) mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

// meshSDF is the signed distance field of a closed triangle mesh. The sign
// comes from the generalized winding number, so small gaps in the surface
// do not flip whole regions.
type meshSDF struct {
	tris [][3]mgl64.Vec3
	bb   sdf.Box3
}

func newMeshSDF(m *kernel.Mesh, cells int) *meshSDF {
	b := m.Bounds()
	size := b.Size()
	pad := math.Max(size[0], math.Max(size[1], size[2])) / float64(cells)
	min := b.Min.Sub(mgl64.Vec3{pad, pad, pad})
	max := b.Max.Add(mgl64.Vec3{pad, pad, pad})
	return &meshSDF{
		tris: m.Triangles(),
		bb:   sdf.Box3{Min: toV3(min), Max: toV3(max)},
	}
}

// Evaluate implements sdf.SDF3.
func (s *meshSDF) Evaluate(p v3.Vec) float64 {
	q := fromV3(p)
	d := math.Inf(1)
	var winding float64
	for _, tri := range s.tris {
		if dist := closestPoint(q, tri).Sub(q).Len(); dist < d {
			d = dist
		}
		winding += solidAngle(q, tri)
	}
	if winding/(4*math.Pi) > 0.5 {
		return -d
	}
	return d
}

// BoundingBox implements sdf.SDF3.
func (s *meshSDF) BoundingBox() sdf.Box3 {
	return s.bb
}

// solidAngle returns the signed solid angle subtended by tri at p.
func solidAngle(p mgl64.Vec3, tri [3]mgl64.Vec3) float64 {
	a, b, c := tri[0].Sub(p), tri[1].Sub(p), tri[2].Sub(p)
	la, lb, lc := a.Len(), b.Len(), c.Len()
	num := a.Dot(b.Cross(c))
	den := la*lb*lc + a.Dot(b)*lc + b.Dot(c)*la + c.Dot(a)*lb
	return 2 * math.Atan2(num, den)
}

// closestPoint returns the point of tri nearest to p.
func closestPoint(p mgl64.Vec3, tri [3]mgl64.Vec3) mgl64.Vec3 {
	a, b, c := tri[0], tri[1], tri[2]
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)

	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}
	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w))
	}
	denom := va + vb + vc
	if denom == 0 {
		return a
	}
	v, w := vb/denom, vc/denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}
