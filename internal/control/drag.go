package control

import (
	"sync"

	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/world"
)

const (
	// DragGain is the pull, per unit of mass and distance, while a body is held.
	DragGain = 500.0
	// ReleaseGain is the pull of the single throw force applied on release.
	ReleaseGain = 200.0
)

// Drag pulls a grabbed body toward the pointer. While held the body's
// velocity is zeroed before every step so it tracks the pointer instead of
// building up momentum; releasing it applies one last, weaker pull that
// throws the body toward the pointer.
//
// Grab, MoveTo and Release may be called from a UI goroutine while
// another goroutine steps the world.
type Drag struct {
	ReleaseGain float64

	mu     sync.Mutex
	pid    *PID
	held   bool
	id     world.BodyID
	target geom.Vec2
	offset geom.Vec2
}

func NewDrag() *Drag {
	return &Drag{
		ReleaseGain: ReleaseGain,
		pid:         NewPID(DragGain, 0, 0),
	}
}

// PID exposes the feedback law for tuning.
func (d *Drag) PID() *PID { return d.pid }

// Grab selects the movable body under point p. Immovable bodies cannot be
// grabbed. The grab offset is kept so the body does not jump to the pointer.
func (d *Drag) Grab(w *world.World, p geom.Vec2) bool {
	id, ok := w.BodyAt(p)
	if !ok {
		return false
	}
	b, _ := w.Body(id)
	if b.Static() {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.held = true
	d.id = id
	d.offset = b.Position.Sub(p)
	d.target = b.Position
	d.pid.Reset()
	return true
}

// MoveTo updates the pointer position.
func (d *Drag) MoveTo(p geom.Vec2) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.target = p.Add(d.offset)
}

// Held returns the grabbed body, if any.
func (d *Drag) Held() (world.BodyID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id, d.held
}

func (d *Drag) Apply(w *world.World, t float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.held {
		return
	}
	b, ok := w.Body(d.id)
	if !ok {
		d.held = false
		return
	}

	toPointer := d.target.Sub(b.Position)
	w.QueueSetVelocity(d.id, geom.Zero, 0)
	if toPointer == geom.Zero {
		return
	}
	w.QueueForce(d.id, d.pid.Compute(toPointer, t).Scale(b.Mass()), 0)
}

// Release lets go of the body, throwing it toward the last pointer position.
func (d *Drag) Release(w *world.World) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.held {
		return
	}
	d.held = false
	b, ok := w.Body(d.id)
	if !ok {
		return
	}
	toPointer := d.target.Sub(b.Position)
	if toPointer != geom.Zero {
		w.QueueForce(d.id, toPointer.Scale(b.Mass()*d.ReleaseGain), 0)
	}
}
