// Package csg implements kernel.Kernel with binary space partitioning
// trees over convex polygons. It is pure Go and needs no external
// library, which makes it the default backend.
package csg

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/lintel/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// DefaultEpsilon is the plane thickness used to classify points, in model
// units.
const DefaultEpsilon = 1e-5

// maxDepth bounds BSP recursion on pathological input.
const maxDepth = 4096

// Kernel subtracts meshes with BSP trees.
type Kernel struct {
	Epsilon float64
}

// New returns a Kernel using DefaultEpsilon.
func New() *Kernel {
	return &Kernel{Epsilon: DefaultEpsilon}
}

// Name implements kernel.Kernel.
func (k *Kernel) Name() string { return "csg" }

// Difference returns a minus b. The result carries unshared vertices and
// flat normals. Its edges are stitched, so closed operands give a closed
// result.
func (k *Kernel) Difference(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	if a.IsEmpty() {
		return nil, kernel.ErrEmptyResult
	}
	if b.IsEmpty() {
		return a.Clone(), nil
	}

	eps := k.Epsilon
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	s := &splitter{eps: eps}

	pa := s.polygons(a)
	pb := s.polygons(b)
	if len(pa) == 0 {
		return nil, kernel.ErrEmptyResult
	}

	na, err := s.tree(pa)
	if err != nil {
		return nil, err
	}
	nb, err := s.tree(pb)
	if err != nil {
		return nil, err
	}

	na.invert()
	na.clipTo(s, nb)
	nb.clipTo(s, na)
	nb.invert()
	nb.clipTo(s, na)
	nb.invert()
	if err := na.build(s, nb.allPolygons(), 0); err != nil {
		return nil, err
	}
	na.invert()

	var tris [][3]mgl64.Vec3
	for _, verts := range stitch(na.allPolygons(), eps) {
		tris = append(tris, fan(verts, eps)...)
	}
	if len(tris) == 0 {
		return nil, kernel.ErrEmptyResult
	}
	out := kernel.FromTriangles(tris)
	out.PartName = a.PartName
	return out, nil
}

type plane struct {
	n mgl64.Vec3
	w float64
}

func (p plane) flipped() plane { return plane{n: p.n.Mul(-1), w: -p.w} }

type polygon struct {
	verts []mgl64.Vec3
	plane plane
}

func (p polygon) flipped() polygon {
	verts := make([]mgl64.Vec3, len(p.verts))
	for i, v := range p.verts {
		verts[len(verts)-1-i] = v
	}
	return polygon{verts: verts, plane: p.plane.flipped()}
}

type splitter struct {
	eps float64
}

// planeOf returns the plane through three points, or false when they are
// collinear.
func planeOf(a, b, c mgl64.Vec3) (plane, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Len()
	if l < 1e-12 {
		return plane{}, false
	}
	n = n.Mul(1 / l)
	return plane{n: n, w: n.Dot(a)}, true
}

// polygons converts a mesh into triangles, dropping degenerate ones.
func (s *splitter) polygons(m *kernel.Mesh) []polygon {
	out := make([]polygon, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		pl, ok := planeOf(tri[0], tri[1], tri[2])
		if !ok {
			continue
		}
		out = append(out, polygon{verts: []mgl64.Vec3{tri[0], tri[1], tri[2]}, plane: pl})
	}
	return out
}

const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

// split sorts poly into the four lists relative to pl, splitting spanning
// polygons in two.
func (s *splitter) split(pl plane, poly polygon, coFront, coBack, fr, bk *[]polygon) {
	kind := 0
	types := make([]int, len(poly.verts))
	for i, v := range poly.verts {
		t := pl.n.Dot(v) - pl.w
		typ := coplanar
		if t < -s.eps {
			typ = back
		} else if t > s.eps {
			typ = front
		}
		kind |= typ
		types[i] = typ
	}

	switch kind {
	case coplanar:
		if pl.n.Dot(poly.plane.n) > 0 {
			*coFront = append(*coFront, poly)
		} else {
			*coBack = append(*coBack, poly)
		}
	case front:
		*fr = append(*fr, poly)
	case back:
		*bk = append(*bk, poly)
	case spanning:
		var f, b []mgl64.Vec3
		n := len(poly.verts)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.verts[i], poly.verts[j]
			if ti != back {
				f = append(f, vi)
			}
			if ti != front {
				b = append(b, vi)
			}
			if ti|tj == spanning {
				t := (pl.w - pl.n.Dot(vi)) / pl.n.Dot(vj.Sub(vi))
				v := vi.Add(vj.Sub(vi).Mul(t))
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*fr = append(*fr, polygon{verts: f, plane: poly.plane})
		}
		if len(b) >= 3 {
			*bk = append(*bk, polygon{verts: b, plane: poly.plane})
		}
	}
}

type node struct {
	plane    *plane
	front    *node
	back     *node
	polygons []polygon
}

func (s *splitter) tree(polys []polygon) (*node, error) {
	n := &node{}
	if err := n.build(s, polys, 0); err != nil {
		return nil, err
	}
	return n, nil
}

// build inserts polygons into the tree. The first polygon's plane is used
// as the splitting plane of a fresh node.
func (n *node) build(s *splitter, polys []polygon, depth int) error {
	if len(polys) == 0 {
		return nil
	}
	if depth > maxDepth {
		return fmt.Errorf("csg: bsp tree deeper than %d", maxDepth)
	}
	if n.plane == nil {
		pl := polys[0].plane
		n.plane = &pl
	}
	var fr, bk []polygon
	for _, p := range polys {
		s.split(*n.plane, p, &n.polygons, &n.polygons, &fr, &bk)
	}
	if len(fr) > 0 {
		if n.front == nil {
			n.front = &node{}
		}
		if err := n.front.build(s, fr, depth+1); err != nil {
			return err
		}
	}
	if len(bk) > 0 {
		if n.back == nil {
			n.back = &node{}
		}
		if err := n.back.build(s, bk, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// invert turns solid space into empty space and the reverse.
func (n *node) invert() {
	for i, p := range n.polygons {
		n.polygons[i] = p.flipped()
	}
	if n.plane != nil {
		pl := n.plane.flipped()
		n.plane = &pl
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of polys inside the solid of this tree.
func (n *node) clipPolygons(s *splitter, polys []polygon) []polygon {
	if n.plane == nil {
		return append([]polygon(nil), polys...)
	}
	var fr, bk []polygon
	for _, p := range polys {
		s.split(*n.plane, p, &fr, &bk, &fr, &bk)
	}
	if n.front != nil {
		fr = n.front.clipPolygons(s, fr)
	}
	if n.back != nil {
		bk = n.back.clipPolygons(s, bk)
	} else {
		bk = nil
	}
	return append(fr, bk...)
}

// clipTo removes the parts of this tree's polygons inside other.
func (n *node) clipTo(s *splitter, other *node) {
	n.polygons = other.clipPolygons(s, n.polygons)
	if n.front != nil {
		n.front.clipTo(s, other)
	}
	if n.back != nil {
		n.back.clipTo(s, other)
	}
}

func (n *node) allPolygons() []polygon {
	out := append([]polygon(nil), n.polygons...)
	if n.front != nil {
		out = append(out, n.front.allPolygons()...)
	}
	if n.back != nil {
		out = append(out, n.back.allPolygons()...)
	}
	return out
}
