package shape

import "github.com/san-kum/rigidsim/internal/geom"

// Segment is the closed line segment from A to B.
type Segment struct {
	A, B geom.Vec2
}

// ClosestPoint projects p onto the segment, clamped to its end points.
// A zero-length segment returns A.
func (s Segment) ClosestPoint(p geom.Vec2) geom.Vec2 {
	ab := s.B.Sub(s.A)
	l2 := ab.LengthSq()
	if l2 == 0 {
		return s.A
	}
	t := p.Sub(s.A).Dot(ab) / l2
	switch {
	case t < 0:
		t = 0
	case t > 1:
		t = 1
	}
	return s.A.Add(ab.Scale(t))
}

// DistanceSq is the squared distance from p to the closest point on the segment.
func (s Segment) DistanceSq(p geom.Vec2) float64 {
	return p.Sub(s.ClosestPoint(p)).LengthSq()
}
