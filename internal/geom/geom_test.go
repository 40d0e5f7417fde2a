package geom

import (
	"math"
	"testing"
)

const eps = 1e-12

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Vec2
		want Vec2
	}{
		{"unit x", V(5, 0), V(1, 0)},
		{"diagonal", V(3, 4), V(0.6, 0.8)},
		{"zero falls back", V(0, 0), DefaultNormal},
		{"nan falls back", V(math.NaN(), 1), DefaultNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCross(t *testing.T) {
	n := V(0, -1)
	tangent := Cross(n, 1)
	if tangent != V(-1, 0) {
		t.Errorf("tangent of %v = %v", n, tangent)
	}
	if tangent.Dot(n) != 0 {
		t.Error("tangent not perpendicular to normal")
	}

	if got := CrossVec(V(1, 0), V(0, 1)); got != 1 {
		t.Errorf("CrossVec = %f, want 1", got)
	}

	// CrossScalar(s, r) is the velocity of point r under spin s.
	v := CrossScalar(2, V(1, 0))
	if v != V(0, 2) {
		t.Errorf("CrossScalar = %v, want (0, 2)", v)
	}
}

func TestRotation(t *testing.T) {
	r := Rotation(math.Pi / 2)
	got := r.MulVec(V(1, 0))
	if !near(got.X, 0) || !near(got.Y, 1) {
		t.Errorf("rotating (1,0) by pi/2 = %v", got)
	}

	id := r.Transpose().Mul(r)
	if !near(id.E11, 1) || !near(id.E22, 1) || !near(id.E12, 0) || !near(id.E21, 0) {
		t.Errorf("RᵀR = %+v, want identity", id)
	}
}

func TestInvert(t *testing.T) {
	m := Mat22{E11: 4, E12: 7, E21: 2, E22: 6}
	p := m.Mul(m.Invert())
	if !near(p.E11, 1) || !near(p.E22, 1) || !near(p.E12, 0) || !near(p.E21, 0) {
		t.Errorf("M·M⁻¹ = %+v", p)
	}

	if (Mat22{E11: 1, E12: 2, E21: 2, E22: 4}).Invert() != (Mat22{}) {
		t.Error("singular matrix should invert to zero")
	}
}
