package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/world"
)

func crateWorld() (*world.World, world.BodyID) {
	w := world.New(geom.Zero)
	return w, w.AddBody(body.MustNew(shape.NewBox(2, 2), 1))
}

func TestTimelineOrderAndErrors(t *testing.T) {
	w, crate := crateWorld()
	tl := NewTimeline([]Event{
		{At: 0.5, Action: ActionVelocity, Body: "crate", X: 2},
		{At: 0, Action: ActionMove, Body: "0", X: 10},
		{At: 1, Action: "explode", Body: "crate"},
		{At: 0.2, Action: ActionRemove, Body: "ghost"},
	}, []world.BodyID{crate}, map[string]world.BodyID{"crate": crate})

	tl.Apply(w, 0)
	if tl.Remaining() != 3 {
		t.Fatalf("expected 3 events left, got %d", tl.Remaining())
	}
	if err := w.Update(0.1); err != nil {
		t.Fatalf("update: %v", err)
	}
	b, _ := w.Body(crate)
	if b.Position.X != 10 {
		t.Errorf("move not applied, x = %f", b.Position.X)
	}

	tl.Apply(w, 0.5)
	tl.Apply(w, 1)
	if tl.Remaining() != 0 {
		t.Errorf("expected all events fired, %d left", tl.Remaining())
	}
	if err := w.Update(0.1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if b.Velocity.X != 2 {
		t.Errorf("velocity not applied, vx = %f", b.Velocity.X)
	}

	err := tl.Err()
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected unknown action error, got %v", err)
	}
	if !errors.Is(err, world.ErrUnknownBody) {
		t.Errorf("expected unknown body error, got %v", err)
	}
}

func TestTimelineSpawn(t *testing.T) {
	w, crate := crateWorld()
	tl := NewTimeline([]Event{
		{At: 0, Action: ActionAdd, Spawn: &config.BodyConfig{Name: "ball", Shape: "circle", Radius: 1, Mass: 1, X: 10}},
		{At: 0, Action: ActionForce, Body: "ball", X: 60},
		{At: 0, Action: ActionGravity, Y: 5},
	}, []world.BodyID{crate}, nil)

	tl.Apply(w, 0)
	if err := tl.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Update(1.0 / 60); err != nil {
		t.Fatalf("update: %v", err)
	}

	if w.Len() != 2 {
		t.Fatalf("expected spawned body, have %d bodies", w.Len())
	}
	ball, _ := w.Body(w.BodyIDs()[1])
	if math.Abs(ball.Velocity.X-1) > 1e-9 {
		t.Errorf("expected vx 1, got %f", ball.Velocity.X)
	}
	if w.Gravity.Y != 5 {
		t.Errorf("gravity not applied")
	}
}

func TestTimelineAddWithoutSpawn(t *testing.T) {
	w, crate := crateWorld()
	tl := NewTimeline([]Event{{Action: ActionAdd}}, []world.BodyID{crate}, nil)
	tl.Apply(w, 0)
	if tl.Err() == nil {
		t.Error("expected error")
	}
}

const scenarioYAML = `
name: knock
scene: stack/three
duration: 1
events:
  - at: 0.25
    action: velocity
    body: "3"
    x: 40
  - at: 0.5
    action: remove
    body: ground
`

func TestRunScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knock.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}

	scenario, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(scenario.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(scenario.Events))
	}

	result, err := RunScenario(context.Background(), scenario, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	final, _ := result.Final()
	if len(final.Bodies) != 3 {
		t.Errorf("expected ground removed, %d bodies left", len(final.Bodies))
	}
	if _, ok := result.Metrics["energy"]; !ok {
		t.Error("expected standard metrics")
	}
}

func TestScenarioUnknownScene(t *testing.T) {
	if _, err := RunScenario(context.Background(), &Scenario{Name: "x", Scene: "nope"}, nil); err == nil {
		t.Error("expected error")
	}
}

func shortStack() *config.Config {
	cfg := config.GetPreset("stack", "three")
	cfg.Duration = 0.5
	return cfg
}

func TestRunSweep(t *testing.T) {
	results, err := RunSweep(context.Background(), &ParameterSweep{
		Config:    shortStack(),
		ParamName: ParamIterations,
		ParamMin:  1,
		ParamMax:  10,
		NumSteps:  4,
	})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	want := []float64{1, 4, 7, 10}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, r := range results {
		if math.Abs(r.ParamValue-want[i]) > 1e-9 {
			t.Errorf("point %d: expected %f, got %f", i, want[i], r.ParamValue)
		}
		if r.Unstable {
			t.Errorf("point %d went unstable", i)
		}
	}
}

func TestRunSweepErrors(t *testing.T) {
	tests := []struct {
		name  string
		sweep ParameterSweep
	}{
		{"unknown param", ParameterSweep{Config: shortStack(), ParamName: "colour", NumSteps: 2}},
		{"no steps", ParameterSweep{Config: shortStack(), ParamName: ParamFriction}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RunSweep(context.Background(), &tt.sweep); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyParam(t *testing.T) {
	base := shortStack()

	cfg, _ := apply(base, ParamMass, 3)
	if cfg.Bodies[1].Mass != 3 || !cfg.Bodies[0].Static {
		t.Error("mass not applied to movable bodies only")
	}
	if base.Bodies[1].Mass == 3 {
		t.Error("apply modified its input")
	}

	cfg, _ = apply(base, ParamFriction, 0.7)
	if *cfg.Bodies[0].Friction != 0.7 {
		t.Error("friction not applied")
	}
}

func TestRunMonteCarlo(t *testing.T) {
	mc := &MonteCarloConfig{
		Config:       shortStack(),
		Perturbation: 0.5,
		NumTrials:    3,
		Seed:         42,
	}

	first, err := RunMonteCarlo(context.Background(), mc)
	if err != nil {
		t.Fatalf("monte carlo failed: %v", err)
	}
	second, err := RunMonteCarlo(context.Background(), mc)
	if err != nil {
		t.Fatalf("monte carlo failed: %v", err)
	}

	if len(first) != 3 {
		t.Fatalf("expected 3 trials, got %d", len(first))
	}
	for i := range first {
		if len(first[i].Offsets) != 6 {
			t.Errorf("trial %d: expected 6 offsets, got %d", i, len(first[i].Offsets))
		}
		if first[i].MaxPenetration != second[i].MaxPenetration || first[i].Drift != second[i].Drift {
			t.Errorf("trial %d not reproducible for a fixed seed", i)
		}
	}

	stable, unstable := MonteCarloStats(first)
	if stable+unstable != 3 {
		t.Errorf("expected 3 classified trials, got %d", stable+unstable)
	}
}
