package world

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collide"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
)

// CullInterval is how many steps a game loop lets pass between Cull calls.
const CullInterval = 60

// CollidingBody returns the first body, in insertion order, that the narrow
// phase reports in contact with q. q need not be in the world.
func (w *World) CollidingBody(q *body.Body) (BodyID, bool) {
	for _, id := range w.order {
		b := w.bodies[id]
		if b == q {
			continue
		}
		if collide.Overlaps(b, q) {
			return id, true
		}
	}
	return 0, false
}

// CanPlace reports whether q could be added without overlapping anything.
func (w *World) CanPlace(q *body.Body) bool {
	_, hit := w.CollidingBody(q)
	return !hit
}

// BodyAt picks the body under point p using a 1x1 query box.
func (w *World) BodyAt(p geom.Vec2) (BodyID, bool) {
	q := body.MustNew(shape.NewBox(1, 1), 1)
	q.Position = p
	return w.CollidingBody(q)
}

// Cull removes every body whose y coordinate is greater than maxY and
// returns the removed handles.
func (w *World) Cull(maxY float64) []BodyID {
	var removed []BodyID
	for _, id := range w.BodyIDs() {
		if w.bodies[id].Position.Y > maxY {
			w.RemoveBody(id)
			removed = append(removed, id)
		}
	}
	return removed
}

// KineticEnergy is the total kinetic energy of all movable bodies.
func (w *World) KineticEnergy() float64 {
	var e float64
	for _, id := range w.order {
		e += w.bodies[id].KineticEnergy()
	}
	return e
}

// MaxPenetration is the deepest contact separation, as a positive depth,
// over the current arbiters.
func (w *World) MaxPenetration() float64 {
	var depth float64
	for _, a := range w.active {
		for _, c := range a.Contacts() {
			if -c.Separation > depth {
				depth = -c.Separation
			}
		}
	}
	return depth
}

// ContactCount is the number of contact points in the current arbiters.
func (w *World) ContactCount() int {
	n := 0
	for _, a := range w.active {
		n += a.NumContacts()
	}
	return n
}
