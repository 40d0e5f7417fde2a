package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/world"
)

func fallingWorld() (*world.World, *body.Body) {
	w := world.New(world.DefaultGravity)
	b := body.MustNew(shape.NewBox(2, 2), 2)
	w.AddBody(b)
	return w, b
}

func TestEnergy(t *testing.T) {
	w, b := fallingWorld()
	m := NewEnergy()

	b.Velocity = geom.V(0, 3)
	m.Observe(w, 0)
	b.Velocity = geom.V(0, 1)
	m.Observe(w, 0)

	// 0.5*2*9 = 9 and 0.5*2*1 = 1
	if math.Abs(m.Value()-5) > 1e-12 {
		t.Errorf("mean energy = %f, want 5", m.Value())
	}
	if m.Peak() != 9 {
		t.Errorf("peak = %f, want 9", m.Peak())
	}

	m.Reset()
	if m.Value() != 0 || m.Peak() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestDrift(t *testing.T) {
	w, b := fallingWorld()
	m := NewDrift()

	m.Observe(w, 0)
	b.Position = geom.V(3, 4)
	m.Observe(w, 1)
	b.Position = geom.V(1, 0)
	m.Observe(w, 2)

	if m.Value() != 5 {
		t.Errorf("drift = %f, want 5", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestStabilityAndPenetration(t *testing.T) {
	w := world.New(geom.Zero)
	a := body.MustNew(shape.NewBox(20, 20), 1)
	b := body.MustNew(shape.NewBox(20, 20), 1)
	b.Position = geom.V(18, 0)
	w.AddBody(a)
	w.AddBody(b)
	if err := w.Update(1.0 / 60); err != nil {
		t.Fatal(err)
	}

	stab := NewStability(0.5)
	pen := NewPenetration()
	contacts := NewContacts()
	for _, m := range []interface {
		Observe(*world.World, float64)
	}{stab, pen, contacts} {
		m.Observe(w, 0)
	}

	if stab.Value() != 0 {
		t.Errorf("stability = %f, want 0 with a 2 unit overlap", stab.Value())
	}
	if math.Abs(pen.Value()-2) > 1e-9 {
		t.Errorf("penetration = %f, want 2", pen.Value())
	}
	if contacts.Value() != 2 {
		t.Errorf("contacts = %f, want 2", contacts.Value())
	}

	stab.Reset()
	if stab.Value() != 1 {
		t.Errorf("empty stability = %f, want 1", stab.Value())
	}
}
