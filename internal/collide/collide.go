// Package collide is the narrow phase: it turns two positioned bodies into
// zero, one or two contact points.
//
// [Collide] first rejects pairs whose bounding boxes do not touch, then
// dispatches on the shape pair:
//
//   - circle/circle: one contact along the line of centres
//   - box/circle and circle/box: one contact at the closest point on the box
//   - box/box: separating axis test plus reference-face clipping, up to two
//     contacts tagged with edge-pair ids so they persist across steps
package collide

import (
	"fmt"
	"math"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
)

type routine func(a, b *body.Body) []Contact

// Collide returns the contacts between a and b, with normals pointing from a
// to b. It panics when either shape is outside the closed shape set.
func Collide(a, b *body.Body) []Contact {
	if !shape.Touches(a.Position, a.Shape.Bounds(), b.Position, b.Shape.Bounds()) {
		return nil
	}
	return dispatch(a.Shape, b.Shape)(a, b)
}

// Overlaps reports whether a and b produce at least one contact.
func Overlaps(a, b *body.Body) bool {
	return len(Collide(a, b)) > 0
}

func dispatch(sa, sb shape.Shape) routine {
	switch sa.(type) {
	case shape.Box:
		switch sb.(type) {
		case shape.Box:
			return boxBox
		case shape.Circle:
			return boxCircle
		}
	case shape.Circle:
		switch sb.(type) {
		case shape.Circle:
			return circleCircle
		case shape.Box:
			return reverse(boxCircle)
		}
	}
	panic(fmt.Sprintf("collide: no routine for %T and %T", sa, sb))
}

// reverse runs fn with its arguments swapped and flips the normals back.
func reverse(fn routine) routine {
	return func(a, b *body.Body) []Contact {
		contacts := fn(b, a)
		for i := range contacts {
			contacts[i].Normal = contacts[i].Normal.Neg()
		}
		return contacts
	}
}

func circleCircle(a, b *body.Body) []Contact {
	ca := a.Shape.(shape.Circle)
	cb := b.Shape.(shape.Circle)

	offset := b.Position.Sub(a.Position)
	r := ca.Radius + cb.Radius
	d2 := offset.LengthSq()
	if d2 >= r*r {
		return nil
	}

	normal := geom.Normalize(offset)
	return []Contact{{
		Separation: math.Sqrt(d2) - r,
		Position:   a.Position.Add(normal.Scale(ca.Radius)),
		Normal:     normal,
		ID:         NoID,
	}}
}

func boxCircle(a, b *body.Body) []Contact {
	box := a.Shape.(shape.Box)
	c := b.Shape.(shape.Circle)
	center := b.Position

	edges := box.Edges(a.Position, a.Rotation)
	inside := box.Contains(a.Position, a.Rotation, center)
	r2 := c.Radius * c.Radius

	found := false
	best := math.MaxFloat64
	var closest geom.Vec2
	for _, e := range edges {
		d2 := e.DistanceSq(center)
		if (inside || d2 < r2) && d2 < best {
			found = true
			best = d2
			closest = e.ClosestPoint(center)
		}
	}
	if !found {
		return nil
	}

	d := math.Sqrt(best)
	if inside {
		// Centre is past the surface: push outward through the nearest edge.
		return []Contact{{
			Separation: -(d + c.Radius),
			Position:   closest,
			Normal:     outwardNormal(box, a, closest, center),
			ID:         NoID,
		}}
	}
	return []Contact{{
		Separation: d - c.Radius,
		Position:   closest,
		Normal:     geom.Normalize(center.Sub(closest)),
		ID:         NoID,
	}}
}

// outwardNormal picks the face normal at closest. When the centre sits
// exactly on the surface the direction to it is undefined, so the face
// axis is used directly.
func outwardNormal(box shape.Box, a *body.Body, closest, center geom.Vec2) geom.Vec2 {
	if d := closest.Sub(center); d.LengthSq() > 0 {
		return geom.Normalize(d)
	}
	rot := geom.Rotation(a.Rotation)
	local := rot.Transpose().MulVec(closest.Sub(a.Position))
	if math.Abs(local.X)/math.Max(box.HalfWidth, 1e-12) >= math.Abs(local.Y)/math.Max(box.HalfHeight, 1e-12) {
		return rot.MulVec(geom.V(math.Copysign(1, local.X), 0))
	}
	return rot.MulVec(geom.V(0, math.Copysign(1, local.Y)))
}
