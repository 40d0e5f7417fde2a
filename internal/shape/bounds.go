package shape

import (
	"math"

	"github.com/san-kum/rigidsim/internal/geom"
)

// BoundingBox is an axis-aligned extent centred on a body's position.
type BoundingBox struct {
	Width  float64
	Height float64
}

// Touches reports whether two bounding boxes centred at posA and posB overlap.
// Boxes that only share an edge do not touch, so zero-sized bounds never overlap.
func Touches(posA geom.Vec2, a BoundingBox, posB geom.Vec2, b BoundingBox) bool {
	d := posB.Sub(posA)
	return math.Abs(d.X) < (a.Width+b.Width)/2 &&
		math.Abs(d.Y) < (a.Height+b.Height)/2
}

// Touches is the method form of the package-level Touches.
func (bb BoundingBox) Touches(pos geom.Vec2, other BoundingBox, otherPos geom.Vec2) bool {
	return Touches(pos, bb, otherPos, other)
}
