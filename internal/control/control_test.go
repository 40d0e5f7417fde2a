package control

import (
	"math"
	"testing"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/world"
)

func TestPIDProportional(t *testing.T) {
	p := NewPID(2, 0, 0)
	u := p.Compute(geom.V(1, -3), 0)
	if u != geom.V(2, -6) {
		t.Errorf("expected (2,-6), got %v", u)
	}
}

func TestPIDIntegralAndDerivative(t *testing.T) {
	p := NewPID(0, 1, 1)
	p.Compute(geom.V(1, 0), 0)
	u := p.Compute(geom.V(2, 0), 0.5)
	// integral 2*0.5 = 1, derivative (2-1)/0.5 = 2
	if math.Abs(u.X-3) > 1e-12 || u.Y != 0 {
		t.Errorf("expected (3,0), got %v", u)
	}

	p.Reset()
	if u := p.Compute(geom.V(1, 0), 1); u != geom.Zero {
		t.Errorf("expected zero output after reset with Kp 0, got %v", u)
	}
}

func TestPIDParams(t *testing.T) {
	p := NewPID(1, 2, 3)
	p.SetParam("Kp", 5)
	p.SetParam("unknown", 9)
	params := p.GetParams()
	if params["Kp"] != 5 || params["Ki"] != 2 || params["Kd"] != 3 {
		t.Errorf("unexpected params %v", params)
	}
}

func dragWorld() (*world.World, world.BodyID, world.BodyID) {
	w := world.New(geom.Zero)
	ground := w.AddBody(body.MustNew(shape.NewBox(100, 10), body.Infinite))
	b, _ := w.Body(ground)
	b.Position = geom.V(0, 100)

	crate := w.AddBody(body.MustNew(shape.NewBox(10, 10), 2))
	return w, ground, crate
}

func TestDragGrab(t *testing.T) {
	w, _, crate := dragWorld()
	d := NewDrag()

	if d.Grab(w, geom.V(0, 50)) {
		t.Error("grabbed empty space")
	}
	if d.Grab(w, geom.V(0, 100)) {
		t.Error("grabbed an immovable body")
	}
	if !d.Grab(w, geom.V(2, 0)) {
		t.Fatal("failed to grab crate")
	}
	id, held := d.Held()
	if !held || id != crate {
		t.Errorf("expected crate %d held, got %d %v", crate, id, held)
	}
}

func TestDragPullsTowardPointer(t *testing.T) {
	w, _, crate := dragWorld()
	d := NewDrag()
	if !d.Grab(w, geom.V(2, 0)) {
		t.Fatal("failed to grab crate")
	}
	// grab offset keeps the body 2 units left of the pointer
	d.MoveTo(geom.V(12, 0))

	b, _ := w.Body(crate)
	b.Velocity = geom.V(0, 7)

	for range 3 {
		d.Apply(w, w.Time())
		if err := w.Update(1.0 / 60); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	if b.Position.X <= 0 {
		t.Errorf("expected crate pulled toward +x, at %v", b.Position)
	}
	if math.Abs(b.Position.Y) > 1e-9 {
		t.Errorf("held velocity was not cleared, y = %f", b.Position.Y)
	}

	d.Release(w)
	if _, held := d.Held(); held {
		t.Error("still held after release")
	}
	if w.Pending() != 1 {
		t.Errorf("expected one queued release force, got %d", w.Pending())
	}
}

func TestDragForgetsRemovedBody(t *testing.T) {
	w, _, crate := dragWorld()
	d := NewDrag()
	d.Grab(w, geom.V(0, 0))
	w.RemoveBody(crate)

	d.Apply(w, 0)
	if _, held := d.Held(); held {
		t.Error("drag kept a removed body")
	}
	if w.Pending() != 0 {
		t.Error("queued commands for a removed body")
	}
}

func TestManual(t *testing.T) {
	w := world.New(geom.Zero)
	id := w.AddBody(body.MustNew(shape.NewBox(1, 1), 1))
	m := NewManual(id)

	m.Apply(w, 0)
	if w.Pending() != 0 {
		t.Error("idle controller queued a command")
	}

	m.SetControl(geom.V(60, 0), 0)
	m.Apply(w, 0)
	if err := w.Update(1.0 / 60); err != nil {
		t.Fatalf("update: %v", err)
	}
	b, _ := w.Body(id)
	if math.Abs(b.Velocity.X-1) > 1e-9 {
		t.Errorf("expected vx 1, got %f", b.Velocity.X)
	}
}
