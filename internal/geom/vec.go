package geom

import (
	"math"

	"github.com/setanarut/vec"
)

// Vec2 is a 2D vector of float64 components.
type Vec2 = vec.Vec2

// DefaultNormal is returned by Normalize for vectors with no direction.
var DefaultNormal = Vec2{X: 0, Y: 1}

// Zero is the zero vector.
var Zero = Vec2{}

func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Normalize returns v scaled to unit length. Zero-length or non-finite
// inputs return DefaultNormal instead of propagating NaN.
func Normalize(v Vec2) Vec2 {
	l := v.Mag()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return DefaultNormal
	}
	s := 1 / l
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Cross returns v rotated by -90 degrees and scaled by s.
func Cross(v Vec2, s float64) Vec2 {
	return Vec2{X: v.Y * s, Y: -v.X * s}
}

// CrossScalar is the cross product of a scalar s (an angular quantity) with v,
// giving the velocity of offset v under angular velocity s.
func CrossScalar(s float64, v Vec2) Vec2 {
	return Vec2{X: -s * v.Y, Y: s * v.X}
}

// CrossVec is the scalar cross product a.x*b.y - a.y*b.x.
func CrossVec(a, b Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

func Abs(v Vec2) Vec2 {
	return Vec2{X: math.Abs(v.X), Y: math.Abs(v.Y)}
}

func Len(v Vec2) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

func Len2(v Vec2) float64 {
	return v.X*v.X + v.Y*v.Y
}

// IsFinite reports whether both components are neither NaN nor infinite.
func IsFinite(v Vec2) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
