package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Mat34 is a row-major 3x4 matrix, a rotation block plus a translation column.
type Mat34 [3][4]float64

// Mat4 is a row-major 4x4 homogeneous matrix.
type Mat4 [4][4]float64

// Identity4 returns the 4x4 identity.
func Identity4() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Extend34 appends the row [0 0 0 1] so m composes by plain multiplication.
func Extend34(m Mat34) Mat4 {
	var out Mat4
	for r := 0; r < 3; r++ {
		out[r] = m[r]
	}
	out[3] = [4]float64{0, 0, 0, 1}
	return out
}

// Extend33 embeds m in the top-left block of a 4x4 identity.
func Extend33(m Mat3) Mat4 {
	out := Identity4()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = m[r][c]
		}
	}
	return out
}

// Mul returns a·b.
func (a Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[r][k] * b[k][c]
			}
			out[r][c] = sum
		}
	}
	return out
}

// Apply transforms the point p as the homogeneous vector [p 1].
// The result is divided by w when the bottom row is not [0 0 0 1].
func (a Mat4) Apply(p [3]float64) [3]float64 {
	var h [4]float64
	for r := 0; r < 4; r++ {
		h[r] = a[r][0]*p[0] + a[r][1]*p[1] + a[r][2]*p[2] + a[r][3]
	}
	if h[3] != 1 && h[3] != 0 {
		return [3]float64{h[0] / h[3], h[1] / h[3], h[2] / h[3]}
	}
	return [3]float64{h[0], h[1], h[2]}
}

// Inverse returns a⁻¹. Singular matrices are reported, not approximated.
func (a Mat4) Inverse() (Mat4, error) {
	src := mat.NewDense(4, 4, a.flat())
	var inv mat.Dense
	if err := inv.Inverse(src); err != nil {
		return Mat4{}, fmt.Errorf("invert 4x4 transform: %w", err)
	}
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r][c] = inv.At(r, c)
		}
	}
	return out, nil
}

// Rotation returns the upper-left 3x3 block.
func (a Mat4) Rotation() Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = a[r][c]
		}
	}
	return out
}

func (a Mat4) flat() []float64 {
	data := make([]float64, 0, 16)
	for r := 0; r < 4; r++ {
		data = append(data, a[r][:]...)
	}
	return data
}

// Apply returns m·p.
func (m Mat3) Apply(p [3]float64) [3]float64 {
	return [3]float64{
		m[0][0]*p[0] + m[0][1]*p[1] + m[0][2]*p[2],
		m[1][0]*p[0] + m[1][1]*p[1] + m[1][2]*p[2],
		m[2][0]*p[0] + m[2][1]*p[1] + m[2][2]*p[2],
	}
}

// Transpose returns mᵀ, the inverse of an orthonormal rotation.
func (m Mat3) Transpose() Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[c][r] = m[r][c]
		}
	}
	return out
}
