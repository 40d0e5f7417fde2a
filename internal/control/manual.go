package control

import (
	"sync"

	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/world"
)

// Manual pushes one body with a force set by the user, for example from
// arrow keys. The force is applied on every step until cleared.
type Manual struct {
	mu     sync.Mutex
	id     world.BodyID
	force  geom.Vec2
	torque float64
}

func NewManual(id world.BodyID) *Manual {
	return &Manual{id: id}
}

// SetControl updates the force and torque.
func (c *Manual) SetControl(force geom.Vec2, torque float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.force = force
	c.torque = torque
}

// Target switches the pushed body.
func (c *Manual) Target(id world.BodyID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

func (c *Manual) Apply(w *world.World, t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.force == geom.Zero && c.torque == 0 {
		return
	}
	if _, ok := w.Body(c.id); !ok {
		return
	}
	w.QueueForce(c.id, c.force, c.torque)
}
