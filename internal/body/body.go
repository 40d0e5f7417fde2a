// Package body defines the rigid body: one shape plus its kinematic state,
// accumulated force and mass properties.
package body

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
)

const DefaultFriction = 0.2

// Infinite is the mass of an immovable body. Any mass at or above
// math.MaxFloat64 is also treated as infinite.
var Infinite = math.Inf(1)

var ErrInvalidMass = errors.New("body: mass must be positive or Infinite")

type Body struct {
	Shape shape.Shape

	Position        geom.Vec2
	Rotation        float64
	Velocity        geom.Vec2
	AngularVelocity float64

	Force  geom.Vec2
	Torque float64

	Friction float64

	mass       float64
	invMass    float64
	inertia    float64
	invInertia float64
}

// IsInfinite reports whether m denotes an immovable body.
func IsInfinite(m float64) bool {
	return math.IsInf(m, 1) || m >= math.MaxFloat64
}

// New creates a body at the origin. It panics on a nil shape and returns
// ErrInvalidMass for non-positive or NaN masses.
func New(s shape.Shape, mass float64) (*Body, error) {
	if s == nil {
		panic("body: nil shape")
	}
	b := &Body{Shape: s, Friction: DefaultFriction}
	if err := b.SetMass(mass); err != nil {
		return nil, err
	}
	return b, nil
}

// MustNew is like New but panics on an invalid mass.
func MustNew(s shape.Shape, mass float64) *Body {
	b, err := New(s, mass)
	if err != nil {
		panic(err)
	}
	return b
}

// SetMass updates mass and the derived inverse mass and rotational inertia.
func (b *Body) SetMass(mass float64) error {
	switch {
	case IsInfinite(mass):
		b.mass = Infinite
		b.invMass = 0
		b.inertia = Infinite
		b.invInertia = 0
		return nil
	case math.IsNaN(mass) || mass <= 0:
		return fmt.Errorf("%w: got %v", ErrInvalidMass, mass)
	}
	b.mass = mass
	b.invMass = 1 / mass
	b.inertia = b.Shape.Inertia(mass)
	if b.inertia > 0 {
		b.invInertia = 1 / b.inertia
	} else {
		b.invInertia = 0
	}
	return nil
}

func (b *Body) Mass() float64           { return b.mass }
func (b *Body) InverseMass() float64    { return b.invMass }
func (b *Body) Inertia() float64        { return b.inertia }
func (b *Body) InverseInertia() float64 { return b.invInertia }

// Static reports whether the body has infinite mass.
func (b *Body) Static() bool { return b.invMass == 0 }

func (b *Body) Bounds() shape.BoundingBox { return b.Shape.Bounds() }

// AddForce accumulates a force through the centre of mass until the next step.
func (b *Body) AddForce(f geom.Vec2) {
	b.Force = b.Force.Add(f)
}

func (b *Body) AddTorque(t float64) {
	b.Torque += t
}

func (b *Body) ClearForces() {
	b.Force = geom.Zero
	b.Torque = 0
}

// ApplyImpulse changes velocity by impulse p acting at offset r from the centre.
func (b *Body) ApplyImpulse(p, r geom.Vec2) {
	b.Velocity = b.Velocity.Add(p.Scale(b.invMass))
	b.AngularVelocity += b.invInertia * geom.CrossVec(r, p)
}

// IntegrateVelocity applies gravity and accumulated force over dt.
// Immovable bodies are left untouched.
func (b *Body) IntegrateVelocity(gravity geom.Vec2, dt float64) {
	if b.invMass == 0 {
		return
	}
	b.Velocity = b.Velocity.Add(gravity.Add(b.Force.Scale(b.invMass)).Scale(dt))
	b.AngularVelocity += b.Torque * b.invInertia * dt
}

func (b *Body) IntegratePosition(dt float64) {
	b.Position = b.Position.Add(b.Velocity.Scale(dt))
	b.Rotation += b.AngularVelocity * dt
}

// KineticEnergy is zero for immovable bodies.
func (b *Body) KineticEnergy() float64 {
	if b.invMass == 0 {
		return 0
	}
	return 0.5*b.mass*b.Velocity.LengthSq() + 0.5*b.inertia*b.AngularVelocity*b.AngularVelocity
}

// Finite reports whether the kinematic state holds no NaN or Inf values.
func (b *Body) Finite() bool {
	return geom.IsFinite(b.Position) && geom.IsFinite(b.Velocity) &&
		!math.IsNaN(b.Rotation) && !math.IsInf(b.Rotation, 0) &&
		!math.IsNaN(b.AngularVelocity) && !math.IsInf(b.AngularVelocity, 0)
}

func (b *Body) String() string {
	return fmt.Sprintf("%s at (%.3f, %.3f) rot %.3f", b.Shape.Kind(), b.Position.X, b.Position.Y, b.Rotation)
}
