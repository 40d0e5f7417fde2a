package control

import "github.com/san-kum/rigidsim/internal/geom"

// PID is a proportional-integral-derivative law on a 2D error vector.
type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	integral geom.Vec2
	prevErr  geom.Vec2
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		first: true,
	}
}

// Compute returns the control output for error err observed at time t.
func (p *PID) Compute(err geom.Vec2, t float64) geom.Vec2 {
	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return err.Scale(p.Kp)
	}

	dt := t - p.prevT
	if dt > 0 {
		p.integral = p.integral.Add(err.Scale(dt))
		derivative := err.Sub(p.prevErr).Scale(1 / dt)

		u := err.Scale(p.Kp).Add(p.integral.Scale(p.Ki)).Add(derivative.Scale(p.Kd))

		p.prevErr = err
		p.prevT = t

		return u
	}
	return err.Scale(p.Kp)
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = geom.Zero
	p.prevErr = geom.Zero
	p.first = true
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": p.Kp,
		"Ki": p.Ki,
		"Kd": p.Kd,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	}
}
