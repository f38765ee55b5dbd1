package kernel

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/lintel/pkg/geom"
)

// weldQuantum is the grid positions are snapped to when deciding whether
// two vertices coincide.
const weldQuantum = 1e-6

// Mesh is an indexed triangle mesh in model units.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float64 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float64 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Vertices) == 0 || len(m.Indices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) mgl64.Vec3 {
	return mgl64.Vec3{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
}

// Triangle returns the corners of triangle t.
func (m *Mesh) Triangle(t int) [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{
		m.Vertex(int(m.Indices[t*3])),
		m.Vertex(int(m.Indices[t*3+1])),
		m.Vertex(int(m.Indices[t*3+2])),
	}
}

// Triangles returns every triangle as corner positions.
func (m *Mesh) Triangles() [][3]mgl64.Vec3 {
	out := make([][3]mgl64.Vec3, m.TriangleCount())
	for t := range out {
		out[t] = m.Triangle(t)
	}
	return out
}

// Bounds returns the axis-aligned bounds of the vertices.
func (m *Mesh) Bounds() geom.Box3 {
	b := geom.EmptyBox()
	for i := 0; i < m.VertexCount(); i++ {
		b = b.Extend(m.Vertex(i))
	}
	return b
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices: append([]float64(nil), m.Vertices...),
		Normals:  append([]float64(nil), m.Normals...),
		Indices:  append([]uint32(nil), m.Indices...),
		PartName: m.PartName,
	}
}

// Transform returns a copy with every vertex mapped through t. Normals are
// rotated by the linear part of t and renormalized.
func (m *Mesh) Transform(t geom.Transform) *Mesh {
	out := m.Clone()
	for i := 0; i < out.VertexCount(); i++ {
		p := t.Apply(m.Vertex(i))
		copy(out.Vertices[i*3:], p[:])
	}
	for i := 0; i+2 < len(out.Normals); i += 3 {
		n := t.ApplyDir(mgl64.Vec3{m.Normals[i], m.Normals[i+1], m.Normals[i+2]})
		if l := n.Len(); l > 1e-12 {
			n = n.Mul(1 / l)
		}
		copy(out.Normals[i:], n[:])
	}
	return out
}

// Merge concatenates meshes into one, offsetting indices. Nil and empty
// meshes are skipped.
func Merge(meshes ...*Mesh) *Mesh {
	out := &Mesh{}
	for _, m := range meshes {
		if m.IsEmpty() {
			continue
		}
		base := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, m.Vertices...)
		normals := m.Normals
		if len(normals) != len(m.Vertices) {
			normals = make([]float64, len(m.Vertices))
		}
		out.Normals = append(out.Normals, normals...)
		for _, idx := range m.Indices {
			out.Indices = append(out.Indices, idx+base)
		}
	}
	return out
}

// FromTriangles builds a mesh with three unshared vertices per triangle
// and flat face normals.
func FromTriangles(tris [][3]mgl64.Vec3) *Mesh {
	m := &Mesh{
		Vertices: make([]float64, 0, len(tris)*9),
		Normals:  make([]float64, 0, len(tris)*9),
		Indices:  make([]uint32, 0, len(tris)*3),
	}
	for i, tri := range tris {
		n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		if l := n.Len(); l > 1e-12 {
			n = n.Mul(1 / l)
		}
		for j := 0; j < 3; j++ {
			m.Vertices = append(m.Vertices, tri[j][0], tri[j][1], tri[j][2])
			m.Normals = append(m.Normals, n[0], n[1], n[2])
			m.Indices = append(m.Indices, uint32(i*3+j))
		}
	}
	return m
}

// Box returns a closed axis-aligned box mesh with outward winding.
func Box(min, max mgl64.Vec3) *Mesh {
	m := &Mesh{}
	for i := 0; i < 8; i++ {
		x, y, z := min[0], min[1], min[2]
		if i&1 != 0 {
			x = max[0]
		}
		if i&2 != 0 {
			y = max[1]
		}
		if i&4 != 0 {
			z = max[2]
		}
		m.Vertices = append(m.Vertices, x, y, z)
	}
	m.Indices = []uint32{
		0, 2, 1, 1, 2, 3, // -z
		4, 5, 6, 5, 7, 6, // +z
		0, 1, 4, 1, 5, 4, // -y
		2, 6, 3, 3, 6, 7, // +y
		0, 4, 2, 2, 4, 6, // -x
		1, 3, 5, 3, 7, 5, // +x
	}
	m.ComputeNormals()
	return m
}

// ComputeNormals sets per-vertex normals by averaging the face normals of
// all triangles incident on each vertex.
func (m *Mesh) ComputeNormals() {
	normals := make([]float64, len(m.Vertices))
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		for j := 0; j < 3; j++ {
			idx := m.Indices[t*3+j]
			normals[idx*3+0] += n[0]
			normals[idx*3+1] += n[1]
			normals[idx*3+2] += n[2]
		}
	}
	for i := 0; i+2 < len(normals); i += 3 {
		l := math.Sqrt(normals[i]*normals[i] + normals[i+1]*normals[i+1] + normals[i+2]*normals[i+2])
		if l > 1e-12 {
			normals[i] /= l
			normals[i+1] /= l
			normals[i+2] /= l
		}
	}
	m.Normals = normals
}

// Volume returns the signed enclosed volume by the divergence theorem. It
// is positive for a closed mesh with outward winding.
func (m *Mesh) Volume() float64 {
	var v float64
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		v += tri[0].Dot(tri[1].Cross(tri[2]))
	}
	return v / 6
}

type weldKey [3]int64

func weld(p mgl64.Vec3) weldKey {
	return weldKey{
		int64(math.Round(p[0] / weldQuantum)),
		int64(math.Round(p[1] / weldQuantum)),
		int64(math.Round(p[2] / weldQuantum)),
	}
}

// Weld returns a copy in which vertices that coincide on the weld grid
// share one index. Triangles that collapse are dropped and normals are
// recomputed.
func (m *Mesh) Weld() *Mesh {
	out := &Mesh{PartName: m.PartName}
	ids := make(map[weldKey]uint32)
	remap := make([]uint32, m.VertexCount())
	for i := range remap {
		p := m.Vertex(i)
		k := weld(p)
		id, ok := ids[k]
		if !ok {
			id = uint32(len(ids))
			ids[k] = id
			out.Vertices = append(out.Vertices, p[0], p[1], p[2])
		}
		remap[i] = id
	}
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := remap[m.Indices[t*3]], remap[m.Indices[t*3+1]], remap[m.Indices[t*3+2]]
		if a == b || b == c || a == c {
			continue
		}
		out.Indices = append(out.Indices, a, b, c)
	}
	out.ComputeNormals()
	return out
}

// IsWatertight reports whether the mesh is closed and consistently wound:
// after welding coincident vertices, every directed edge is used once and
// its reverse is used once. Triangles that collapse under welding are
// ignored.
func (m *Mesh) IsWatertight() bool {
	if m.IsEmpty() {
		return false
	}
	ids := make(map[weldKey]int)
	welded := make([]int, m.VertexCount())
	for i := range welded {
		k := weld(m.Vertex(i))
		id, ok := ids[k]
		if !ok {
			id = len(ids)
			ids[k] = id
		}
		welded[i] = id
	}

	type edge struct{ a, b int }
	edges := make(map[edge]int)
	faces := 0
	for t := 0; t < m.TriangleCount(); t++ {
		a := welded[m.Indices[t*3]]
		b := welded[m.Indices[t*3+1]]
		c := welded[m.Indices[t*3+2]]
		if a == b || b == c || a == c {
			continue
		}
		faces++
		edges[edge{a, b}]++
		edges[edge{b, c}]++
		edges[edge{c, a}]++
	}
	if faces == 0 {
		return false
	}
	for e, n := range edges {
		if n != 1 || edges[edge{e.b, e.a}] != 1 {
			return false
		}
	}
	return true
}
