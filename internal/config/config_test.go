package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/rigidsim/internal/body"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scene != "stack" {
		t.Errorf("expected scene stack, got %s", cfg.Scene)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("pyramid", "builder")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	// ground plus 5+4+3+2+1 boxes
	if len(cfg.Bodies) != 16 {
		t.Errorf("expected 16 bodies, got %d", len(cfg.Bodies))
	}
	if cfg.CullBelow != 960 {
		t.Errorf("expected cull line 960, got %f", cfg.CullBelow)
	}

	cfg.Bodies[0].X = 1e6
	if GetPreset("pyramid", "builder").Bodies[0].X == 1e6 {
		t.Error("GetPreset returned a shared config")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("stack", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "three")
	if cfg != nil {
		t.Error("expected nil for nonexistent scene")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("stack")
	if len(presets) != 2 || presets[0] != "tall" || presets[1] != "three" {
		t.Errorf("unexpected stack presets %v", presets)
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent scene")
	}
}

func TestNamed(t *testing.T) {
	if cfg := Named("stack/tall"); cfg == nil || len(cfg.Bodies) != 9 {
		t.Error("expected tall stack")
	}
	if cfg := Named("seesaw"); cfg == nil || len(cfg.Joints) != 1 {
		t.Error("expected bare scene to resolve to its first variant")
	}
	if Named("nope") != nil {
		t.Error("expected nil for unknown scene")
	}
}

func TestPresetsBuild(t *testing.T) {
	for _, scene := range Scenes() {
		for _, name := range ListPresets(scene) {
			t.Run(scene+"/"+name, func(t *testing.T) {
				cfg := GetPreset(scene, name)
				w, ids, err := cfg.Build()
				if err != nil {
					t.Fatalf("build failed: %v", err)
				}
				if w.Len() != len(cfg.Bodies) || len(ids) != len(cfg.Bodies) {
					t.Errorf("expected %d bodies, got %d", len(cfg.Bodies), w.Len())
				}
				if len(w.Joints()) != len(cfg.Joints) {
					t.Errorf("expected %d joints, got %d", len(cfg.Joints), len(w.Joints()))
				}
				for range 10 {
					if err := w.Update(cfg.Dt); err != nil {
						t.Fatalf("update failed: %v", err)
					}
				}
			})
		}
	}
}

func TestBuild(t *testing.T) {
	friction := 0.5
	cfg := DefaultConfig()
	cfg.Gravity = GravityConfig{X: 1, Y: 2}
	cfg.Iterations = 7
	cfg.WarmStarting = false
	cfg.Bodies = []BodyConfig{
		{Shape: "box", Width: 10, Height: 10, Static: true},
		{Shape: "circle", Radius: 2, X: 3, Y: -4, Rotation: 0.5, Mass: 4, Friction: &friction, VX: 1, Omega: 2},
	}

	w, ids, err := cfg.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if w.Gravity.X != 1 || w.Gravity.Y != 2 || w.Iterations() != 7 || w.WarmStarting() {
		t.Error("world settings not applied")
	}

	ground, _ := w.Body(ids[0])
	if !body.IsInfinite(ground.Mass()) {
		t.Error("static body should have infinite mass")
	}

	ball, _ := w.Body(ids[1])
	if ball.Position.X != 3 || ball.Position.Y != -4 || ball.Rotation != 0.5 {
		t.Errorf("unexpected pose %v", ball)
	}
	if ball.Friction != 0.5 || ball.Velocity.X != 1 || ball.AngularVelocity != 2 {
		t.Error("friction or velocity not applied")
	}
	if math.Abs(ball.Inertia()-8) > 1e-12 {
		t.Errorf("expected inertia 8, got %f", ball.Inertia())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }},
		{"unknown shape", func(c *Config) { c.Bodies[1].Shape = "triangle" }},
		{"zero width", func(c *Config) { c.Bodies[1].Width = 0 }},
		{"circle without radius", func(c *Config) { c.Bodies[1].Shape = "circle" }},
		{"massless body", func(c *Config) { c.Bodies[1].Mass = 0 }},
		{"self joint", func(c *Config) { c.Joints = []JointConfig{{Body1: 1, Body2: 1}} }},
		{"joint out of range", func(c *Config) { c.Joints = []JointConfig{{Body1: 0, Body2: 9}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
			if _, _, err := cfg.Build(); err == nil {
				t.Error("expected build error")
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")

	cfg := GetPreset("seesaw", "plank")
	cfg.Dt = 0.005
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Dt != 0.005 || len(loaded.Bodies) != 3 || len(loaded.Joints) != 1 {
		t.Errorf("round trip lost data: %+v", loaded)
	}
	if i, ok := loaded.Lookup("plank"); !ok || i != 1 {
		t.Errorf("expected plank at index 1, got %d %v", i, ok)
	}
}

func TestLoadSceneReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("scene: circles/mixed\nduration: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Duration != 3 || cfg.Dt != DefaultDt {
		t.Error("file values or defaults not applied")
	}
	if len(cfg.Bodies) != 7 || cfg.Bodies[2].Shape != "box" {
		t.Errorf("expected mixed circles scene, got %d bodies", len(cfg.Bodies))
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
