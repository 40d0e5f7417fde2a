// Package solver implements the sequential impulse constraint solver.
//
// An [Arbiter] holds the contact manifold of one body pair and keeps the
// accumulated impulses of persistent contacts between steps. A [Joint]
// pins two bodies together at an anchor. Both satisfy [Constraint], which
// is all the world's solver loop needs:
//
//	for _, c := range constraints { c.PreStep(1 / dt) }
//	for i := 0; i < iterations; i++ {
//		for _, c := range constraints { c.ApplyImpulse() }
//	}
package solver

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/geom"
)

const (
	// DefaultIterations is the number of ApplyImpulse passes per step.
	DefaultIterations = 5
	// AllowedPenetration is the slop tolerated before the bias pushes bodies apart.
	AllowedPenetration = 0.01
	// BiasFactor is the fraction of positional error corrected per step.
	BiasFactor = 0.2
)

type Constraint interface {
	PreStep(invDt float64)
	ApplyImpulse()
}

// relativeVelocity is the velocity of the point at r2 on b2 relative to the
// point at r1 on b1.
func relativeVelocity(b1, b2 *body.Body, r1, r2 geom.Vec2) geom.Vec2 {
	v2 := b2.Velocity.Add(geom.CrossScalar(b2.AngularVelocity, r2))
	v1 := b1.Velocity.Add(geom.CrossScalar(b1.AngularVelocity, r1))
	return v2.Sub(v1)
}

// applyPair applies impulse p to b2 and -p to b1.
func applyPair(b1, b2 *body.Body, r1, r2, p geom.Vec2) {
	b1.ApplyImpulse(p.Neg(), r1)
	b2.ApplyImpulse(p, r2)
}

// effectiveMass is the inverse of the pair's resistance along axis.
func effectiveMass(b1, b2 *body.Body, r1, r2, axis geom.Vec2) float64 {
	rn1 := r1.Dot(axis)
	rn2 := r2.Dot(axis)
	k := b1.InverseMass() + b2.InverseMass() +
		b1.InverseInertia()*(r1.LengthSq()-rn1*rn1) +
		b2.InverseInertia()*(r2.LengthSq()-rn2*rn2)
	if k <= 0 {
		return 0
	}
	return 1 / k
}
