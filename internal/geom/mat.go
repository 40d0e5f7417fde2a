package geom

import "math"

// Mat22 is a row-major 2x2 matrix:
//
//	| E11 E12 |
//	| E21 E22 |
type Mat22 struct {
	E11, E12 float64
	E21, E22 float64
}

// Rotation builds the right-handed rotation matrix for angle radians.
func Rotation(angle float64) Mat22 {
	s, c := math.Sincos(angle)
	return Mat22{E11: c, E12: -s, E21: s, E22: c}
}

func (m Mat22) MulVec(v Vec2) Vec2 {
	return Vec2{
		X: m.E11*v.X + m.E12*v.Y,
		Y: m.E21*v.X + m.E22*v.Y,
	}
}

// Mul returns the matrix product m*n.
func (m Mat22) Mul(n Mat22) Mat22 {
	return Mat22{
		E11: m.E11*n.E11 + m.E12*n.E21,
		E12: m.E11*n.E12 + m.E12*n.E22,
		E21: m.E21*n.E11 + m.E22*n.E21,
		E22: m.E21*n.E12 + m.E22*n.E22,
	}
}

func (m Mat22) Add(n Mat22) Mat22 {
	return Mat22{E11: m.E11 + n.E11, E12: m.E12 + n.E12, E21: m.E21 + n.E21, E22: m.E22 + n.E22}
}

// Transpose is the inverse of a pure rotation.
func (m Mat22) Transpose() Mat22 {
	return Mat22{E11: m.E11, E12: m.E21, E21: m.E12, E22: m.E22}
}

func (m Mat22) Abs() Mat22 {
	return Mat22{E11: math.Abs(m.E11), E12: math.Abs(m.E12), E21: math.Abs(m.E21), E22: math.Abs(m.E22)}
}

// Col1 and Col2 are the matrix columns; for a rotation they are the local x and y axes.
func (m Mat22) Col1() Vec2 { return Vec2{X: m.E11, Y: m.E21} }
func (m Mat22) Col2() Vec2 { return Vec2{X: m.E12, Y: m.E22} }

// Invert returns the inverse of m, or the zero matrix when m is singular.
func (m Mat22) Invert() Mat22 {
	det := m.E11*m.E22 - m.E12*m.E21
	if det == 0 {
		return Mat22{}
	}
	d := 1 / det
	return Mat22{
		E11: d * m.E22, E12: -d * m.E12,
		E21: -d * m.E21, E22: d * m.E11,
	}
}
