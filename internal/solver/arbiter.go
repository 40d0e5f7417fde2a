package solver

import (
	"math"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/collide"
	"github.com/san-kum/rigidsim/internal/geom"
)

type contactState struct {
	collide.Contact

	r1, r2      geom.Vec2
	massNormal  float64
	massTangent float64
	bias        float64
}

// Arbiter resolves the contacts between one pair of bodies. The body
// assignment is fixed for the arbiter's lifetime.
type Arbiter struct {
	Body1, Body2 *body.Body

	// Friction is the geometric mean of the two bodies' coefficients.
	Friction float64

	// WarmStarting carries accumulated impulses over from matching
	// contacts of the previous step and re-applies them in PreStep.
	WarmStarting bool

	contacts []contactState
}

func NewArbiter(b1, b2 *body.Body, contacts []collide.Contact) *Arbiter {
	a := &Arbiter{
		Body1:        b1,
		Body2:        b2,
		Friction:     math.Sqrt(b1.Friction * b2.Friction),
		WarmStarting: true,
	}
	a.contacts = make([]contactState, len(contacts))
	for i, c := range contacts {
		a.contacts[i].Contact = c
	}
	return a
}

// SetContacts replaces the manifold. A new contact whose ID matches an old
// one inherits its accumulated impulses when warm starting is on.
func (a *Arbiter) SetContacts(contacts []collide.Contact) {
	merged := make([]contactState, len(contacts))
	for i, c := range contacts {
		merged[i].Contact = c
		old, ok := a.find(c.ID)
		if ok && a.WarmStarting {
			merged[i].Pn = old.Pn
			merged[i].Pt = old.Pt
			merged[i].Pnb = old.Pnb
		} else {
			merged[i].Pn = 0
			merged[i].Pt = 0
			merged[i].Pnb = 0
		}
	}
	a.contacts = merged
}

func (a *Arbiter) find(id collide.ContactID) (*contactState, bool) {
	for i := range a.contacts {
		if a.contacts[i].ID == id {
			return &a.contacts[i], true
		}
	}
	return nil, false
}

// Contacts returns a copy of the current manifold including accumulated impulses.
func (a *Arbiter) Contacts() []collide.Contact {
	out := make([]collide.Contact, len(a.contacts))
	for i := range a.contacts {
		out[i] = a.contacts[i].Contact
	}
	return out
}

func (a *Arbiter) NumContacts() int { return len(a.contacts) }

func (a *Arbiter) HasBody(b *body.Body) bool {
	return a.Body1 == b || a.Body2 == b
}

func (a *Arbiter) PreStep(invDt float64) {
	b1, b2 := a.Body1, a.Body2
	for i := range a.contacts {
		c := &a.contacts[i]
		c.r1 = c.Position.Sub(b1.Position)
		c.r2 = c.Position.Sub(b2.Position)

		tangent := geom.Cross(c.Normal, 1)
		c.massNormal = effectiveMass(b1, b2, c.r1, c.r2, c.Normal)
		c.massTangent = effectiveMass(b1, b2, c.r1, c.r2, tangent)
		c.bias = -BiasFactor * invDt * math.Min(0, c.Separation+AllowedPenetration)

		if a.WarmStarting {
			p := c.Normal.Scale(c.Pn).Add(tangent.Scale(c.Pt))
			applyPair(b1, b2, c.r1, c.r2, p)
		}
	}
}

func (a *Arbiter) ApplyImpulse() {
	b1, b2 := a.Body1, a.Body2
	for i := range a.contacts {
		c := &a.contacts[i]

		dv := relativeVelocity(b1, b2, c.r1, c.r2)
		vn := dv.Dot(c.Normal)
		dPn := c.massNormal * (-vn + c.bias)

		pn0 := c.Pn
		c.Pn = math.Max(pn0+dPn, 0)
		dPn = c.Pn - pn0
		applyPair(b1, b2, c.r1, c.r2, c.Normal.Scale(dPn))

		dv = relativeVelocity(b1, b2, c.r1, c.r2)
		tangent := geom.Cross(c.Normal, 1)
		vt := dv.Dot(tangent)
		dPt := c.massTangent * -vt

		maxPt := a.Friction * c.Pn
		pt0 := c.Pt
		c.Pt = clamp(pt0+dPt, -maxPt, maxPt)
		dPt = c.Pt - pt0
		applyPair(b1, b2, c.r1, c.r2, tangent.Scale(dPt))
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
