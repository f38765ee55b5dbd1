package csg

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// stitch snaps the vertices of polys together and splits every polygon
// edge at the vertices lying on it. BSP splitting cuts a polygon without
// touching its neighbour across the same edge, which leaves T-junctions;
// after stitching, neighbouring polygons share their edges exactly.
// Polygons thinner than tol are dropped.
func stitch(polys []polygon, tol float64) [][]mgl64.Vec3 {
	w := newWelder(tol)
	rings := make([][]int, 0, len(polys))
	for _, p := range polys {
		ring := make([]int, 0, len(p.verts))
		for _, v := range p.verts {
			id := w.id(v)
			if len(ring) > 0 && ring[len(ring)-1] == id {
				continue
			}
			ring = append(ring, id)
		}
		for len(ring) > 1 && ring[0] == ring[len(ring)-1] {
			ring = ring[:len(ring)-1]
		}
		if len(ring) >= 3 {
			rings = append(rings, ring)
		}
	}

	byX := make([]int, len(w.points))
	for i := range byX {
		byX[i] = i
	}
	sort.Slice(byX, func(i, j int) bool {
		return w.points[byX[i]][0] < w.points[byX[j]][0]
	})

	out := make([][]mgl64.Vec3, 0, len(rings))
	for _, ring := range rings {
		verts := make([]mgl64.Vec3, 0, len(ring))
		for i, a := range ring {
			b := ring[(i+1)%len(ring)]
			verts = append(verts, w.points[a])
			for _, id := range w.between(byX, a, b) {
				verts = append(verts, w.points[id])
			}
		}
		if !thin(verts, tol) {
			out = append(out, verts)
		}
	}
	return out
}

// welder maps points to shared indices. Points within tol of an existing
// point take its index and its exact coordinates.
type welder struct {
	tol    float64
	points []mgl64.Vec3
	cells  map[[3]int64][]int
}

func newWelder(tol float64) *welder {
	return &welder{tol: tol, cells: make(map[[3]int64][]int)}
}

func (w *welder) cell(p mgl64.Vec3) [3]int64 {
	return [3]int64{
		int64(math.Floor(p[0] / w.tol)),
		int64(math.Floor(p[1] / w.tol)),
		int64(math.Floor(p[2] / w.tol)),
	}
}

func (w *welder) id(p mgl64.Vec3) int {
	c := w.cell(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, id := range w.cells[[3]int64{c[0] + dx, c[1] + dy, c[2] + dz}] {
					if w.points[id].Sub(p).Len() <= w.tol {
						return id
					}
				}
			}
		}
	}
	id := len(w.points)
	w.points = append(w.points, p)
	w.cells[c] = append(w.cells[c], id)
	return id
}

// between returns the points strictly inside segment a-b, ordered from a
// to b. byX lists every point index sorted by x.
func (w *welder) between(byX []int, a, b int) []int {
	pa, pb := w.points[a], w.points[b]
	d := pb.Sub(pa)
	l2 := d.Dot(d)
	if l2 == 0 {
		return nil
	}
	lo := math.Min(pa[0], pb[0]) - w.tol
	hi := math.Max(pa[0], pb[0]) + w.tol
	start := sort.Search(len(byX), func(i int) bool {
		return w.points[byX[i]][0] >= lo
	})

	type hit struct {
		id int
		t  float64
	}
	var hits []hit
	for _, id := range byX[start:] {
		p := w.points[id]
		if p[0] > hi {
			break
		}
		if id == a || id == b {
			continue
		}
		t := p.Sub(pa).Dot(d) / l2
		if t <= 0 || t >= 1 {
			continue
		}
		if pa.Add(d.Mul(t)).Sub(p).Len() > w.tol {
			continue
		}
		hits = append(hits, hit{id: id, t: t})
	}
	if len(hits) == 0 {
		return nil
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].t < hits[j].t })
	ids := make([]int, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids
}

// thin reports whether a polygon is narrower than tol: twice its area is
// at most tol times its perimeter.
func thin(verts []mgl64.Vec3, tol float64) bool {
	var n mgl64.Vec3
	var perimeter float64
	for i, v := range verts {
		next := verts[(i+1)%len(verts)]
		n = n.Add(v.Sub(verts[0]).Cross(next.Sub(verts[0])))
		perimeter += next.Sub(v).Len()
	}
	return n.Len() <= tol*perimeter
}

// fan triangulates a convex polygon from its first vertex. When a vertex
// lies on the line through its neighbours, which stitching produces, the
// fan is taken from the centroid so that no triangle is degenerate.
func fan(verts []mgl64.Vec3, tol float64) [][3]mgl64.Vec3 {
	n := len(verts)
	straight := false
	for i := range verts {
		if collinear(verts[(i+n-1)%n], verts[i], verts[(i+1)%n], tol) {
			straight = true
			break
		}
	}

	tris := make([][3]mgl64.Vec3, 0, n)
	if !straight {
		for i := 2; i < n; i++ {
			tris = append(tris, [3]mgl64.Vec3{verts[0], verts[i-1], verts[i]})
		}
		return tris
	}
	var c mgl64.Vec3
	for _, v := range verts {
		c = c.Add(v)
	}
	c = c.Mul(1 / float64(n))
	for i := range verts {
		tris = append(tris, [3]mgl64.Vec3{c, verts[i], verts[(i+1)%n]})
	}
	return tris
}

// collinear reports whether b is within tol of the line through a and c.
func collinear(a, b, c mgl64.Vec3, tol float64) bool {
	ac := c.Sub(a)
	l := ac.Len()
	if l < tol {
		return true
	}
	return b.Sub(a).Cross(ac).Len()/l <= tol
}
