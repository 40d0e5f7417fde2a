package sim

import (
	"math"

	"github.com/san-kum/rigidsim/internal/world"
)

// BodyState is one body's kinematic state at a recorded instant.
type BodyState struct {
	ID       world.BodyID
	X        float64
	Y        float64
	Rotation float64
	VX       float64
	VY       float64
	Omega    float64
}

// Frame is the state of every body in the world at time Time.
type Frame struct {
	Step   int
	Time   float64
	Bodies []BodyState
}

// Capture records the current state of w.
func Capture(w *world.World) Frame {
	ids := w.BodyIDs()
	f := Frame{Step: w.Steps(), Time: w.Time(), Bodies: make([]BodyState, 0, len(ids))}
	for _, id := range ids {
		b, _ := w.Body(id)
		f.Bodies = append(f.Bodies, BodyState{
			ID:       id,
			X:        b.Position.X,
			Y:        b.Position.Y,
			Rotation: b.Rotation,
			VX:       b.Velocity.X,
			VY:       b.Velocity.Y,
			Omega:    b.AngularVelocity,
		})
	}
	return f
}

// Find returns the state of body id in the frame.
func (f Frame) Find(id world.BodyID) (BodyState, bool) {
	for _, b := range f.Bodies {
		if b.ID == id {
			return b, true
		}
	}
	return BodyState{}, false
}

func (f Frame) IsValid() bool {
	for _, b := range f.Bodies {
		for _, v := range [...]float64{b.X, b.Y, b.Rotation, b.VX, b.VY, b.Omega} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Controller acts on the world between steps, usually by queueing commands.
type Controller interface {
	Apply(w *world.World, t float64)
}

type Metric interface {
	Name() string
	Observe(w *world.World, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(w *world.World, t float64)
}

type Config struct {
	Dt       float64
	Duration float64
	// CullBelow removes bodies whose y exceeds it every CullInterval
	// steps. Zero disables culling.
	CullBelow    float64
	CullInterval int
	// RecordEvery keeps one frame in every RecordEvery steps; zero or one
	// keeps them all.
	RecordEvery int
}

type Result struct {
	Frames     []Frame
	Metrics    map[string]float64
	StepsTaken int
	Culled     []world.BodyID
	// Errors holds failed queued commands. A run stops early only on an
	// unstable step, which is also the last entry here.
	Errors []error
}

// Final is the last recorded frame.
func (r *Result) Final() (Frame, bool) {
	if len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

// Trajectory returns the recorded positions of one body.
func (r *Result) Trajectory(id world.BodyID) []BodyState {
	out := make([]BodyState, 0, len(r.Frames))
	for _, f := range r.Frames {
		if b, ok := f.Find(id); ok {
			out = append(out, b)
		}
	}
	return out
}
