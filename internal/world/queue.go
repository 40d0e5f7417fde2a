package world

import (
	"errors"
	"fmt"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/geom"
)

// command is a deferred world mutation applied by Flush.
type command interface {
	apply(w *World) error
}

type addBodyCmd struct {
	id BodyID
	b  *body.Body
}

func (c addBodyCmd) apply(w *World) error {
	w.insert(c.id, c.b)
	return nil
}

type removeBodyCmd struct {
	id BodyID
}

func (c removeBodyCmd) apply(w *World) error {
	if !w.RemoveBody(c.id) {
		return fmt.Errorf("remove %d: %w", c.id, ErrUnknownBody)
	}
	return nil
}

type forceCmd struct {
	id     BodyID
	force  geom.Vec2
	torque float64
}

func (c forceCmd) apply(w *World) error {
	b, ok := w.bodies[c.id]
	if !ok {
		return fmt.Errorf("force on %d: %w", c.id, ErrUnknownBody)
	}
	b.AddForce(c.force)
	b.AddTorque(c.torque)
	return nil
}

type moveCmd struct {
	id       BodyID
	position geom.Vec2
	rotation float64
}

func (c moveCmd) apply(w *World) error {
	b, ok := w.bodies[c.id]
	if !ok {
		return fmt.Errorf("move %d: %w", c.id, ErrUnknownBody)
	}
	b.Position = c.position
	b.Rotation = c.rotation
	return nil
}

type velocityCmd struct {
	id      BodyID
	linear  geom.Vec2
	angular float64
}

func (c velocityCmd) apply(w *World) error {
	b, ok := w.bodies[c.id]
	if !ok {
		return fmt.Errorf("set velocity of %d: %w", c.id, ErrUnknownBody)
	}
	b.Velocity = c.linear
	b.AngularVelocity = c.angular
	return nil
}

type addJointCmd struct {
	j Joint
}

func (c addJointCmd) apply(w *World) error {
	w.AddJoint(c.j)
	return nil
}

type removeJointCmd struct {
	j Joint
}

func (c removeJointCmd) apply(w *World) error {
	if !w.RemoveJoint(c.j) {
		return ErrUnknownJoint
	}
	return nil
}

func (w *World) enqueue(c command) {
	w.mu.Lock()
	w.pending = append(w.pending, c)
	w.mu.Unlock()
}

// QueueAddBody schedules b for insertion and returns the handle it will
// have, so later queued commands can refer to it.
func (w *World) QueueAddBody(b *body.Body) BodyID {
	if b == nil {
		panic("world: nil body")
	}
	id := w.reserveID()
	w.enqueue(addBodyCmd{id: id, b: b})
	return id
}

func (w *World) QueueRemoveBody(id BodyID) {
	w.enqueue(removeBodyCmd{id: id})
}

// QueueForce adds force and torque to the body's accumulators for the next step.
func (w *World) QueueForce(id BodyID, force geom.Vec2, torque float64) {
	w.enqueue(forceCmd{id: id, force: force, torque: torque})
}

func (w *World) QueueMove(id BodyID, position geom.Vec2, rotation float64) {
	w.enqueue(moveCmd{id: id, position: position, rotation: rotation})
}

func (w *World) QueueSetVelocity(id BodyID, linear geom.Vec2, angular float64) {
	w.enqueue(velocityCmd{id: id, linear: linear, angular: angular})
}

func (w *World) QueueAddJoint(j Joint) {
	w.enqueue(addJointCmd{j: j})
}

func (w *World) QueueRemoveJoint(j Joint) {
	w.enqueue(removeJointCmd{j: j})
}

// Pending is the number of queued commands not yet applied.
func (w *World) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Flush applies queued commands in the order they were queued. Every
// command is attempted; failures are joined into the returned error.
func (w *World) Flush() error {
	w.mu.Lock()
	cmds := w.pending
	w.pending = nil
	w.mu.Unlock()

	var errs []error
	for _, c := range cmds {
		if err := c.apply(w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
