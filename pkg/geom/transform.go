package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a 4x4 homogeneous matrix in column-major order.
type Transform mgl64.Mat4

// Identity returns the identity transform.
func Identity() Transform {
	return Transform(mgl64.Ident4())
}

// Translation returns a pure translation.
func Translation(v mgl64.Vec3) Transform {
	return Transform(mgl64.Translate3D(v[0], v[1], v[2]))
}

// Mul returns t @ o: o is applied first, then t.
func (t Transform) Mul(o Transform) Transform {
	return Transform(mgl64.Mat4(t).Mul4(mgl64.Mat4(o)))
}

// Apply transforms a point.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Mat4(t).Mul4x1(p.Vec4(1)).Vec3()
}

// ApplyDir transforms a direction, ignoring translation.
func (t Transform) ApplyDir(d mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Mat4(t).Mul4x1(d.Vec4(0)).Vec3()
}

// Offset returns the translation column.
func (t Transform) Offset() mgl64.Vec3 {
	return mgl64.Mat4(t).Col(3).Vec3()
}

// At returns the element at row, col.
func (t Transform) At(row, col int) float64 {
	return mgl64.Mat4(t).At(row, col)
}

// ApproxEqual compares element-wise with an absolute tolerance.
func (t Transform) ApproxEqual(o Transform, eps float64) bool {
	for i := range t {
		if math.Abs(t[i]-o[i]) > eps {
			return false
		}
	}
	return true
}

// IsIdentity reports whether t is the identity up to rounding.
func (t Transform) IsIdentity() bool {
	return t.ApproxEqual(Identity(), 1e-12)
}

// RowMajor returns the 16 matrix elements row by row, the layout used for
// the ObjectPlacement property of exported records.
func (t Transform) RowMajor() []float64 {
	out := make([]float64, 0, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out = append(out, t.At(r, c))
		}
	}
	return out
}
