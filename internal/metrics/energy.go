package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/world"
)

// Energy is the mean total kinetic energy over the observed steps.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
	peak        float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(w *world.World, t float64) {
	ke := w.KineticEnergy()
	e.totalEnergy += ke
	e.peak = math.Max(e.peak, ke)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

// Peak is the largest kinetic energy seen.
func (e *Energy) Peak() float64 { return e.peak }

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.peak = 0
	e.samples = 0
}

// Drift is the largest distance any body has moved from where it was first
// observed. For a scene that should stay at rest it measures creep.
type Drift struct {
	name     string
	origin   map[world.BodyID][2]float64
	maxDrift float64
}

func NewDrift() *Drift {
	return &Drift{
		name:   "drift",
		origin: make(map[world.BodyID][2]float64),
	}
}

func (d *Drift) Name() string { return d.name }

func (d *Drift) Observe(w *world.World, t float64) {
	for _, id := range w.BodyIDs() {
		b, _ := w.Body(id)
		o, ok := d.origin[id]
		if !ok {
			d.origin[id] = [2]float64{b.Position.X, b.Position.Y}
			continue
		}
		dist := math.Hypot(b.Position.X-o[0], b.Position.Y-o[1])
		d.maxDrift = math.Max(d.maxDrift, dist)
	}
}

func (d *Drift) Value() float64 {
	return d.maxDrift
}

func (d *Drift) Reset() {
	clear(d.origin)
	d.maxDrift = 0
}
