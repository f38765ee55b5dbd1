package tessellate

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	errNotSimple  = errors.New("tessellate: ring is not a simple polygon")
	errZeroArea   = errors.New("tessellate: ring has no area")
	errNoEarFound = errors.New("tessellate: ear clipping stalled")
)

// ring turns a profile vertex list into an open counter-clockwise ring:
// the closing vertex and consecutive duplicates are removed.
func ring(verts []mgl64.Vec2) ([]mgl64.Vec2, error) {
	pts := make([]mgl64.Vec2, 0, len(verts))
	for _, v := range verts {
		if len(pts) > 0 && samePoint(pts[len(pts)-1], v) {
			continue
		}
		pts = append(pts, v)
	}
	for len(pts) > 1 && samePoint(pts[0], pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	pts = dropCollinear(pts)
	if len(pts) < 3 {
		return nil, errZeroArea
	}

	area := signedArea(pts)
	if math.Abs(area) <= areaEpsilon(pts) {
		return nil, errZeroArea
	}
	if !isSimple(pts) {
		return nil, errNotSimple
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts, nil
}

// dropCollinear removes vertices lying on the line through their
// neighbours, so caps and walls share the same corners.
func dropCollinear(pts []mgl64.Vec2) []mgl64.Vec2 {
	if len(pts) < 3 {
		return pts
	}
	eps := areaEpsilon(pts)
	for removed := true; removed && len(pts) >= 3; {
		removed = false
		for k := 0; k < len(pts); k++ {
			prev, next := pts[(k+len(pts)-1)%len(pts)], pts[(k+1)%len(pts)]
			if math.Abs(cross(prev, pts[k], next)) <= eps {
				pts = append(pts[:k], pts[k+1:]...)
				removed = true
				break
			}
		}
	}
	return pts
}

func samePoint(a, b mgl64.Vec2) bool {
	return math.Abs(a[0]-b[0]) <= 1e-12*(1+math.Abs(a[0])) &&
		math.Abs(a[1]-b[1]) <= 1e-12*(1+math.Abs(a[1]))
}

// signedArea is positive for counter-clockwise rings.
func signedArea(pts []mgl64.Vec2) float64 {
	var a float64
	for i := range pts {
		p, q := pts[i], pts[(i+1)%len(pts)]
		a += p[0]*q[1] - q[0]*p[1]
	}
	return a / 2
}

// areaEpsilon scales the zero-area tolerance to the ring's extent.
func areaEpsilon(pts []mgl64.Vec2) float64 {
	var ext float64
	for _, p := range pts[1:] {
		ext = math.Max(ext, math.Max(math.Abs(p[0]-pts[0][0]), math.Abs(p[1]-pts[0][1])))
	}
	return 1e-12 * ext * ext
}

func cross(o, a, b mgl64.Vec2) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// isSimple reports whether no two non-adjacent edges of the ring touch.
func isSimple(pts []mgl64.Vec2) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsTouch(a, b, pts[j], pts[(j+1)%n]) {
				return false
			}
		}
	}
	return true
}

func segmentsTouch(p1, p2, q1, q2 mgl64.Vec2) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func onSegment(a, b, p mgl64.Vec2) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}

// earClip triangulates a simple counter-clockwise ring. The returned
// triangles index into pts and are counter-clockwise.
func earClip(pts []mgl64.Vec2) ([][3]int, error) {
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	eps := areaEpsilon(pts)
	tris := make([][3]int, 0, len(pts)-2)

	for len(idx) > 3 {
		clipped := false
		for k := 0; k < len(idx); k++ {
			i0 := idx[(k+len(idx)-1)%len(idx)]
			i1 := idx[k]
			i2 := idx[(k+1)%len(idx)]
			c := cross(pts[i0], pts[i1], pts[i2])

			// A flat corner left behind by earlier ears is clipped as a
			// zero-area triangle so the cap keeps every ring edge.
			flat := math.Abs(c) <= eps
			if !flat && (c < 0 || containsAny(pts, idx, i0, i1, i2)) {
				continue
			}
			tris = append(tris, [3]int{i0, i1, i2})
			idx = append(idx[:k], idx[k+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, errNoEarFound
		}
	}
	if len(idx) == 3 {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	return tris, nil
}

// containsAny reports whether a remaining ring vertex other than the
// corners lies inside or on triangle (a, b, c).
func containsAny(pts []mgl64.Vec2, idx []int, a, b, c int) bool {
	for _, i := range idx {
		if i == a || i == b || i == c {
			continue
		}
		p := pts[i]
		if samePoint(p, pts[a]) || samePoint(p, pts[b]) || samePoint(p, pts[c]) {
			continue
		}
		if cross(pts[a], pts[b], p) >= 0 && cross(pts[b], pts[c], p) >= 0 && cross(pts[c], pts[a], p) >= 0 {
			return true
		}
	}
	return false
}
