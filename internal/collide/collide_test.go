package collide

import (
	"math"
	"testing"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
)

func place(s shape.Shape, x, y, rot float64) *body.Body {
	b := body.MustNew(s, 1)
	b.Position = geom.V(x, y)
	b.Rotation = rot
	return b
}

func TestCircleCircleSymmetry(t *testing.T) {
	tests := []struct {
		name    string
		bx, by  float64
		collide bool
	}{
		{"overlapping", 3, 4, true},
		{"just touching", 6, 8, false},
		{"apart", 20, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := place(shape.NewCircle(5), 0, 0, 0)
			b := place(shape.NewCircle(5), tt.bx, tt.by, 0)

			ab := Collide(a, b)
			ba := Collide(b, a)
			if (len(ab) > 0) != tt.collide || (len(ba) > 0) != tt.collide {
				t.Fatalf("collide = %d/%d contacts, want collision %v", len(ab), len(ba), tt.collide)
			}
			if !tt.collide {
				return
			}
			if ab[0].Normal != ba[0].Normal.Neg() {
				t.Errorf("normals %v and %v not opposite", ab[0].Normal, ba[0].Normal)
			}
			if ab[0].Separation != -5 {
				t.Errorf("separation = %f, want -5", ab[0].Separation)
			}
			if ab[0].ID != NoID {
				t.Errorf("circle contact id = %v", ab[0].ID)
			}
		})
	}
}

func TestCircleContactPosition(t *testing.T) {
	a := place(shape.NewCircle(2), 10, 10, 0)
	b := place(shape.NewCircle(2), 13, 10, 0)
	c := Collide(a, b)
	if len(c) != 1 {
		t.Fatalf("got %d contacts", len(c))
	}
	if c[0].Position != geom.V(12, 10) {
		t.Errorf("position = %v, want world point (12, 10)", c[0].Position)
	}
}

func TestCoincidentCircles(t *testing.T) {
	a := place(shape.NewCircle(1), 0, 0, 0)
	b := place(shape.NewCircle(1), 0, 0, 0)
	c := Collide(a, b)
	if len(c) != 1 {
		t.Fatalf("got %d contacts", len(c))
	}
	if c[0].Normal != geom.DefaultNormal {
		t.Errorf("normal = %v, want fallback %v", c[0].Normal, geom.DefaultNormal)
	}
}

func TestBoxBoxSeparation(t *testing.T) {
	a := place(shape.NewBox(20, 20), 0, 0, 0)

	apart := place(shape.NewBox(20, 20), 25, 0, 0)
	if c := Collide(a, apart); len(c) != 0 {
		t.Errorf("gap of 5: got %d contacts", len(c))
	}

	overlap := place(shape.NewBox(20, 20), 15, 0, 0)
	c := Collide(a, overlap)
	if len(c) == 0 {
		t.Fatal("overlap of 5: no contacts")
	}
	for _, ct := range c {
		if math.Abs(ct.Separation+5) > 1e-9 {
			t.Errorf("separation = %f, want -5", ct.Separation)
		}
		if ct.Normal != geom.V(1, 0) {
			t.Errorf("normal = %v, want (1, 0)", ct.Normal)
		}
		if _, ok := ct.ID.Edges(); !ok {
			t.Error("box contact without edge id")
		}
	}
	if len(c) == 2 && c[0].ID == c[1].ID {
		t.Error("both contacts share an id")
	}
}

func TestBoxBoxPrefersEarlierAxisOnNearTie(t *testing.T) {
	// overlaps of 5 on x and 4.95 on y: y is shallower, but not by enough
	// to displace the x face of A
	a := place(shape.NewBox(20, 20), 0, 0, 0)
	b := place(shape.NewBox(20, 20), 15, 15.05, 0)

	c := Collide(a, b)
	if len(c) == 0 {
		t.Fatal("no contacts")
	}
	for _, ct := range c {
		if ct.Normal != geom.V(1, 0) {
			t.Errorf("normal = %v, want (1, 0)", ct.Normal)
		}
	}

	// a clear winner still takes over
	b = place(shape.NewBox(20, 20), 15, 17, 0)
	for _, ct := range Collide(a, b) {
		if ct.Normal != geom.V(0, 1) {
			t.Errorf("normal = %v, want (0, 1)", ct.Normal)
		}
	}
}

func TestBoxBoxNormalPointsAToB(t *testing.T) {
	ground := place(shape.NewBox(100, 10), 0, 0, 0)
	above := place(shape.NewBox(10, 10), 3, -9, 0.1)

	down := Collide(ground, above)
	if len(down) == 0 {
		t.Fatal("no contacts")
	}
	for _, ct := range down {
		if ct.Normal.Y >= 0 {
			t.Errorf("normal %v should point from ground up to the box", ct.Normal)
		}
	}
	for _, ct := range Collide(above, ground) {
		if ct.Normal.Y <= 0 {
			t.Errorf("normal %v should point from box down to the ground", ct.Normal)
		}
	}
}

func TestBoxBoxIDsPersist(t *testing.T) {
	ground := place(shape.NewBox(100, 20), 0, 0, 0)
	first := Collide(ground, place(shape.NewBox(20, 20), 0, -19.5, 0))
	second := Collide(ground, place(shape.NewBox(20, 20), 0.5, -19.4, 0.01))

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("contact count %d -> %d, want 2", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("contact %d id changed %v -> %v", i, first[i].ID, second[i].ID)
		}
	}
}

func TestBoxCircle(t *testing.T) {
	box := place(shape.NewBox(20, 20), 0, 0, 0)

	tests := []struct {
		name    string
		cy      float64
		wantSep float64
		wantN   geom.Vec2
	}{
		{"outside touching face", 12, -3, geom.V(0, 1)},
		{"centre inside", 8, -3, geom.V(0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := 5.0
			if tt.name == "centre inside" {
				r = 1
			}
			circle := place(shape.NewCircle(r), 0, tt.cy, 0)

			c := Collide(box, circle)
			if len(c) != 1 {
				t.Fatalf("got %d contacts", len(c))
			}
			if math.Abs(c[0].Separation-tt.wantSep) > 1e-9 {
				t.Errorf("separation = %f, want %f", c[0].Separation, tt.wantSep)
			}
			if c[0].Normal != tt.wantN {
				t.Errorf("normal = %v, want %v", c[0].Normal, tt.wantN)
			}
			if c[0].Position != geom.V(0, 10) {
				t.Errorf("position = %v", c[0].Position)
			}

			rev := Collide(circle, box)
			if len(rev) != 1 || rev[0].Normal != tt.wantN.Neg() {
				t.Errorf("reversed contacts = %+v", rev)
			}
		})
	}

	far := place(shape.NewCircle(5), 0, 16, 0)
	if c := Collide(box, far); len(c) != 0 {
		t.Errorf("circle 1 unit away: %d contacts", len(c))
	}
}

func TestEdgePairSwap(t *testing.T) {
	e := EdgePair{InEdge1: Edge1, OutEdge1: Edge2, InEdge2: Edge3, OutEdge2: Edge4}
	s := e.Swap()
	if s.InEdge1 != Edge3 || s.OutEdge1 != Edge4 || s.InEdge2 != Edge1 || s.OutEdge2 != Edge2 {
		t.Errorf("Swap = %+v", s)
	}
	if s.Swap() != e {
		t.Error("Swap is not an involution")
	}
	if EdgeID(e) == NoID {
		t.Error("edge id equals NoID")
	}
}

type unknownShape struct {
	shape.Box
}

func TestUnknownShapePanics(t *testing.T) {
	a := place(unknownShape{shape.NewBox(2, 2)}, 0, 0, 0)
	b := place(shape.NewBox(2, 2), 0, 0, 0)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown shape pair")
		}
	}()
	Collide(a, b)
}
