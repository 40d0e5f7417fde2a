package world

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collide"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/solver"
)

// BodyID is a stable handle to a body in a World. Zero is never issued.
type BodyID uint64

// DefaultGravity points down the screen: y grows downward.
var DefaultGravity = geom.V(0, 10)

// Joint is any constraint that links bodies and can report which ones.
type Joint interface {
	solver.Constraint
	HasBody(b *body.Body) bool
}

type pairKey struct {
	lo, hi BodyID
}

func makePair(a, b BodyID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

type World struct {
	Gravity geom.Vec2

	iterations   int
	warmStarting bool

	order  []BodyID
	bodies map[BodyID]*body.Body

	arbiters map[pairKey]*solver.Arbiter
	// active is the arbiter solve order of the last collision pass.
	active []*solver.Arbiter
	joints []Joint

	step int
	time float64

	mu      sync.Mutex
	nextID  BodyID
	pending []command
}

type Option func(*World)

// WithIterations sets the number of impulse passes per step. Values below
// one are ignored.
func WithIterations(n int) Option {
	return func(w *World) {
		if n > 0 {
			w.iterations = n
		}
	}
}

func WithWarmStarting(on bool) Option {
	return func(w *World) {
		w.warmStarting = on
	}
}

func New(gravity geom.Vec2, opts ...Option) *World {
	w := &World{
		Gravity:      gravity,
		iterations:   solver.DefaultIterations,
		warmStarting: true,
		bodies:       make(map[BodyID]*body.Body),
		arbiters:     make(map[pairKey]*solver.Arbiter),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) Iterations() int    { return w.iterations }
func (w *World) WarmStarting() bool { return w.warmStarting }

// Steps is the number of completed updates.
func (w *World) Steps() int { return w.step }

// Time is the simulated time accumulated over completed updates.
func (w *World) Time() float64 { return w.time }

func (w *World) reserveID() BodyID {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	return w.nextID
}

// AddBody inserts b and returns its handle. It panics if b is nil.
func (w *World) AddBody(b *body.Body) BodyID {
	if b == nil {
		panic("world: nil body")
	}
	id := w.reserveID()
	w.insert(id, b)
	return id
}

func (w *World) insert(id BodyID, b *body.Body) {
	w.bodies[id] = b
	w.order = append(w.order, id)
}

// RemoveBody drops the body, every arbiter that references it and every
// joint attached to it. It reports whether the body existed.
func (w *World) RemoveBody(id BodyID) bool {
	b, ok := w.bodies[id]
	if !ok {
		return false
	}
	delete(w.bodies, id)
	w.order = slices.DeleteFunc(w.order, func(x BodyID) bool { return x == id })

	for key, arb := range w.arbiters {
		if arb.HasBody(b) {
			delete(w.arbiters, key)
		}
	}
	w.active = slices.DeleteFunc(w.active, func(a *solver.Arbiter) bool { return a.HasBody(b) })
	w.joints = slices.DeleteFunc(w.joints, func(j Joint) bool { return j.HasBody(b) })
	return true
}

func (w *World) Body(id BodyID) (*body.Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// ID is the reverse lookup of Body.
func (w *World) ID(b *body.Body) (BodyID, bool) {
	for _, id := range w.order {
		if w.bodies[id] == b {
			return id, true
		}
	}
	return 0, false
}

// Bodies returns the bodies in insertion order.
func (w *World) Bodies() []*body.Body {
	out := make([]*body.Body, len(w.order))
	for i, id := range w.order {
		out[i] = w.bodies[id]
	}
	return out
}

// BodyIDs returns the live handles in insertion order.
func (w *World) BodyIDs() []BodyID {
	return slices.Clone(w.order)
}

func (w *World) Len() int { return len(w.order) }

// AddJoint registers j with the solver. Adding the same joint twice is a no-op.
func (w *World) AddJoint(j Joint) {
	if slices.Contains(w.joints, j) {
		return
	}
	w.joints = append(w.joints, j)
}

// RemoveJoint removes j by identity and reports whether it was present.
func (w *World) RemoveJoint(j Joint) bool {
	n := len(w.joints)
	w.joints = slices.DeleteFunc(w.joints, func(x Joint) bool { return x == j })
	return len(w.joints) != n
}

func (w *World) Joints() []Joint {
	return slices.Clone(w.joints)
}

// Arbiters returns the live arbiters in solve order.
func (w *World) Arbiters() []*solver.Arbiter {
	return slices.Clone(w.active)
}

// Arbiter returns the arbiter for the pair, if the pair is in contact.
func (w *World) Arbiter(a, b BodyID) (*solver.Arbiter, bool) {
	arb, ok := w.arbiters[makePair(a, b)]
	return arb, ok
}

// Update advances the world by dt. Queued commands are applied first; their
// failures are returned joined with any step error but do not stop the step.
// A non-finite body state after the step yields a *StepError wrapping
// ErrUnstable.
func (w *World) Update(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidStep, dt)
	}
	cmdErr := w.Flush()

	w.detectCollisions()

	for _, id := range w.order {
		w.bodies[id].IntegrateVelocity(w.Gravity, dt)
	}

	invDt := 1 / dt
	for _, a := range w.active {
		a.PreStep(invDt)
	}
	for _, j := range w.joints {
		j.PreStep(invDt)
	}

	for i := 0; i < w.iterations; i++ {
		for _, a := range w.active {
			a.ApplyImpulse()
		}
		for _, j := range w.joints {
			j.ApplyImpulse()
		}
	}

	for _, id := range w.order {
		b := w.bodies[id]
		b.IntegratePosition(dt)
		b.ClearForces()
	}

	w.step++
	w.time += dt

	for _, id := range w.order {
		if !w.bodies[id].Finite() {
			return errors.Join(cmdErr, &StepError{Step: w.step, Time: w.time, Body: id, Wrapped: ErrUnstable})
		}
	}
	return cmdErr
}

// detectCollisions refreshes the arbiter set from the narrow phase.
// Pairs of immovable bodies are never tested.
func (w *World) detectCollisions() {
	w.active = w.active[:0]
	for i, idA := range w.order {
		a := w.bodies[idA]
		for _, idB := range w.order[i+1:] {
			b := w.bodies[idB]
			key := makePair(idA, idB)

			if a.InverseMass() == 0 && b.InverseMass() == 0 {
				delete(w.arbiters, key)
				continue
			}

			contacts := collide.Collide(a, b)
			if len(contacts) == 0 {
				delete(w.arbiters, key)
				continue
			}

			arb, ok := w.arbiters[key]
			if ok {
				arb.SetContacts(contacts)
			} else {
				arb = solver.NewArbiter(a, b, contacts)
				arb.WarmStarting = w.warmStarting
				w.arbiters[key] = arb
			}
			w.active = append(w.active, arb)
		}
	}
}
