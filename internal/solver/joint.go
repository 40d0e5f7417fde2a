package solver

import (
	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/geom"
)

// Joint is a revolute (pin) joint holding two body points together at a
// shared world anchor.
type Joint struct {
	Body1, Body2 *body.Body

	BiasFactor float64
	// Softness is added to the diagonal of the effective mass matrix;
	// zero gives a rigid joint.
	Softness     float64
	WarmStarting bool

	localAnchor1 geom.Vec2
	localAnchor2 geom.Vec2

	r1, r2 geom.Vec2
	m      geom.Mat22
	bias   geom.Vec2
	p      geom.Vec2
}

// NewJoint pins b1 and b2 at the world point anchor, using the bodies'
// current positions and rotations to fix the local anchors.
func NewJoint(b1, b2 *body.Body, anchor geom.Vec2) *Joint {
	return &Joint{
		Body1:        b1,
		Body2:        b2,
		BiasFactor:   BiasFactor,
		WarmStarting: true,
		localAnchor1: geom.Rotation(b1.Rotation).Transpose().MulVec(anchor.Sub(b1.Position)),
		localAnchor2: geom.Rotation(b2.Rotation).Transpose().MulVec(anchor.Sub(b2.Position)),
	}
}

// Anchors returns the joint points on each body in world space.
func (j *Joint) Anchors() (geom.Vec2, geom.Vec2) {
	a1 := j.Body1.Position.Add(geom.Rotation(j.Body1.Rotation).MulVec(j.localAnchor1))
	a2 := j.Body2.Position.Add(geom.Rotation(j.Body2.Rotation).MulVec(j.localAnchor2))
	return a1, a2
}

// Impulse is the accumulated impulse applied to Body2.
func (j *Joint) Impulse() geom.Vec2 { return j.p }

func (j *Joint) HasBody(b *body.Body) bool {
	return j.Body1 == b || j.Body2 == b
}

func (j *Joint) PreStep(invDt float64) {
	b1, b2 := j.Body1, j.Body2
	j.r1 = geom.Rotation(b1.Rotation).MulVec(j.localAnchor1)
	j.r2 = geom.Rotation(b2.Rotation).MulVec(j.localAnchor2)

	im := b1.InverseMass() + b2.InverseMass()
	k1 := geom.Mat22{E11: im, E22: im}
	k2 := pointInertia(b1.InverseInertia(), j.r1)
	k3 := pointInertia(b2.InverseInertia(), j.r2)
	k := k1.Add(k2).Add(k3)
	k.E11 += j.Softness
	k.E22 += j.Softness
	j.m = k.Invert()

	p1 := b1.Position.Add(j.r1)
	p2 := b2.Position.Add(j.r2)
	j.bias = p2.Sub(p1).Scale(-j.BiasFactor * invDt)

	if j.WarmStarting {
		applyPair(b1, b2, j.r1, j.r2, j.p)
	} else {
		j.p = geom.Zero
	}
}

func (j *Joint) ApplyImpulse() {
	b1, b2 := j.Body1, j.Body2
	dv := relativeVelocity(b1, b2, j.r1, j.r2)
	impulse := j.m.MulVec(j.bias.Sub(dv).Sub(j.p.Scale(j.Softness)))
	applyPair(b1, b2, j.r1, j.r2, impulse)
	j.p = j.p.Add(impulse)
}

func pointInertia(invI float64, r geom.Vec2) geom.Mat22 {
	return geom.Mat22{
		E11: invI * r.Y * r.Y, E12: -invI * r.X * r.Y,
		E21: -invI * r.X * r.Y, E22: invI * r.X * r.X,
	}
}
