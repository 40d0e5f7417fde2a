package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/world"
)

// Contacts is the mean number of contact points per step.
type Contacts struct {
	name    string
	sum     int
	samples int
}

func NewContacts() *Contacts {
	return &Contacts{name: "contacts"}
}

func (c *Contacts) Name() string { return c.name }

func (c *Contacts) Observe(w *world.World, t float64) {
	c.sum += w.ContactCount()
	c.samples++
}

func (c *Contacts) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.sum) / float64(c.samples)
}

func (c *Contacts) Reset() {
	c.sum = 0
	c.samples = 0
}

// Penetration is the deepest contact penetration seen.
type Penetration struct {
	name  string
	depth float64
}

func NewPenetration() *Penetration {
	return &Penetration{name: "max_penetration"}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(w *world.World, t float64) {
	p.depth = math.Max(p.depth, w.MaxPenetration())
}

func (p *Penetration) Value() float64 { return p.depth }

func (p *Penetration) Reset() { p.depth = 0 }
