package shape

import (
	"fmt"
	"math"

	"github.com/san-kum/rigidsim/internal/geom"
)

// Shape is the closed set of collision shapes: Box and Circle.
// Shapes are plain values; the narrow phase dispatches on the concrete type.
type Shape interface {
	Kind() Kind
	Bounds() BoundingBox
	// Inertia is the moment of inertia about the centroid for a body of the given mass.
	Inertia(mass float64) float64
	sealed()
}

type Kind int

const (
	KindBox Kind = iota
	KindCircle
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindCircle:
		return "circle"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "box", "":
		return KindBox, nil
	case "circle":
		return KindCircle, nil
	}
	return 0, fmt.Errorf("unknown shape %q", s)
}

// Box is a rectangle centred on its body, stored as half extents.
type Box struct {
	HalfWidth  float64
	HalfHeight float64
}

// NewBox returns a box of the given full width and height.
// Negative dimensions are taken by magnitude.
func NewBox(width, height float64) Box {
	return Box{HalfWidth: math.Abs(width) / 2, HalfHeight: math.Abs(height) / 2}
}

func (Box) Kind() Kind { return KindBox }
func (Box) sealed()    {}

func (b Box) Width() float64  { return 2 * b.HalfWidth }
func (b Box) Height() float64 { return 2 * b.HalfHeight }

// Half returns the half extents as a vector.
func (b Box) Half() geom.Vec2 {
	return geom.V(b.HalfWidth, b.HalfHeight)
}

// Bounds is the square enclosing the box's circumscribed circle, so it
// stays conservative under any rotation.
func (b Box) Bounds() BoundingBox {
	d := 2 * math.Hypot(b.HalfWidth, b.HalfHeight)
	return BoundingBox{Width: d, Height: d}
}

func (b Box) Inertia(mass float64) float64 {
	return mass * (b.HalfWidth*b.HalfWidth + b.HalfHeight*b.HalfHeight) / 3
}

// Points returns the corners in counter-clockwise order starting at
// (-hx, -hy), rotated and translated into world space. Edge i of the box
// runs from Points[i] to Points[(i+1)%4].
func (b Box) Points(pos geom.Vec2, rotation float64) [4]geom.Vec2 {
	rot := geom.Rotation(rotation)
	hx, hy := b.HalfWidth, b.HalfHeight
	local := [4]geom.Vec2{
		geom.V(-hx, -hy),
		geom.V(hx, -hy),
		geom.V(hx, hy),
		geom.V(-hx, hy),
	}
	var out [4]geom.Vec2
	for i, p := range local {
		out[i] = pos.Add(rot.MulVec(p))
	}
	return out
}

// Edges returns the four sides as segments, in the same order as Points.
func (b Box) Edges(pos geom.Vec2, rotation float64) [4]Segment {
	p := b.Points(pos, rotation)
	return [4]Segment{
		{A: p[0], B: p[1]},
		{A: p[1], B: p[2]},
		{A: p[2], B: p[3]},
		{A: p[3], B: p[0]},
	}
}

// Contains reports whether the world point p lies inside or on the box.
func (b Box) Contains(pos geom.Vec2, rotation float64, p geom.Vec2) bool {
	local := geom.Rotation(rotation).Transpose().MulVec(p.Sub(pos))
	return math.Abs(local.X) <= b.HalfWidth && math.Abs(local.Y) <= b.HalfHeight
}

type Circle struct {
	Radius float64
}

func NewCircle(radius float64) Circle {
	return Circle{Radius: math.Abs(radius)}
}

func (Circle) Kind() Kind { return KindCircle }
func (Circle) sealed()    {}

func (c Circle) Bounds() BoundingBox {
	return BoundingBox{Width: 2 * c.Radius, Height: 2 * c.Radius}
}

func (c Circle) Inertia(mass float64) float64 {
	return mass * c.Radius * c.Radius / 2
}
