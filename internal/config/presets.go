package config

import (
	"slices"
	"strings"
)

// Builder playfield dimensions.
const (
	FieldWidth  = 640.0
	FieldHeight = 480.0
)

// BuilderMass is the mass of the builder crates and of boxes drawn in the
// live view.
const BuilderMass = 20000.0

var Presets = map[string]map[string]*Config{
	"stack": {
		"three": stack(3),
		"tall":  stack(8),
	},
	"pyramid": {
		"builder": builder(),
		"small":   pyramid(3, 0, 0, 20, 22, 10),
	},
	"circles": {
		"pile":  circles(false),
		"mixed": circles(true),
	},
	"seesaw": {
		"plank": seesaw(),
	},
}

func base(scene string, duration float64) *Config {
	cfg := DefaultConfig()
	cfg.Scene = scene
	cfg.Duration = duration
	cfg.Bodies = nil
	return cfg
}

func stack(n int) *Config {
	cfg := base("stack", 10)
	cfg.Bodies = append(cfg.Bodies, BodyConfig{Name: "ground", Shape: "box", Width: 200, Height: 20, Static: true})
	for i := 1; i <= n; i++ {
		cfg.Bodies = append(cfg.Bodies, BodyConfig{
			Shape: "box", Width: 20, Height: 20, Y: -20 * float64(i), Mass: DefaultMass,
		})
	}
	return cfg
}

// pyramid stacks rows of size x size boxes on a static ground whose top
// surface is at groundTop, centred on x.
func pyramid(rows int, x, groundTop, size, spacing, mass float64) *Config {
	cfg := base("pyramid", 15)
	cfg.Bodies = append(cfg.Bodies, BodyConfig{
		Name: "ground", Shape: "box", Width: 400, Height: 20, X: x, Y: groundTop + 10, Static: true,
	})
	addPyramid(cfg, rows, x, groundTop-size/2, size, spacing, mass)
	return cfg
}

func addPyramid(cfg *Config, rows int, x, yBase, size, spacing, mass float64) {
	for row := 0; row < rows; row++ {
		cols := rows - row
		xBase := x - float64(cols-1)/2*spacing
		for col := 0; col < cols; col++ {
			cfg.Bodies = append(cfg.Bodies, BodyConfig{
				Shape: "box", Width: size, Height: size,
				X: xBase + float64(col)*spacing, Y: yBase - float64(row)*spacing,
				Mass: mass,
			})
		}
	}
}

// builder is the sandbox scene: a wide ground slab under a five row pyramid,
// with bodies culled once they fall well below the field.
func builder() *Config {
	cfg := base("pyramid", 30)
	cfg.CullBelow = FieldHeight * 2
	cfg.Bodies = append(cfg.Bodies, BodyConfig{
		Name: "ground", Shape: "box", Width: FieldWidth + 100, Height: 50,
		X: FieldWidth / 2, Y: FieldHeight - 25, Static: true,
	})
	addPyramid(cfg, 5, FieldWidth/2, FieldHeight-25-50-5, 30, 35, BuilderMass)
	return cfg
}

func circles(mixed bool) *Config {
	cfg := base("circles", 10)
	cfg.Bodies = append(cfg.Bodies, BodyConfig{Name: "ground", Shape: "box", Width: 300, Height: 20, Static: true})
	for i := 0; i < 6; i++ {
		b := BodyConfig{
			Shape: "circle", Radius: 8,
			X: float64(i%3)*20 - 20 + float64(i/3)*5, Y: -30 - float64(i/3)*25,
			Mass: 5,
		}
		if mixed && i%2 == 1 {
			b = BodyConfig{Shape: "box", Width: 14, Height: 14, X: b.X, Y: b.Y, Mass: 5}
		}
		cfg.Bodies = append(cfg.Bodies, b)
	}
	return cfg
}

func seesaw() *Config {
	cfg := base("seesaw", 10)
	cfg.Bodies = []BodyConfig{
		{Name: "ground", Shape: "box", Width: 200, Height: 20, Static: true},
		{Name: "plank", Shape: "box", Width: 120, Height: 4, Y: -30, Mass: 20},
		{Name: "weight", Shape: "box", Width: 10, Height: 10, X: 40, Y: -60, Mass: 15},
	}
	cfg.Joints = []JointConfig{{Body1: 0, Body2: 1, X: 0, Y: -30}}
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scene, preset string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	cfg, ok := scenePresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the variant names of scene in sorted order.
func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Scenes lists the preset scene names in sorted order.
func Scenes() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Named resolves "scene/variant", or a bare scene name to its first
// variant, to a copy of that preset.
func Named(name string) *Config {
	scene, variant, found := strings.Cut(name, "/")
	if !found {
		variants := ListPresets(scene)
		if len(variants) == 0 {
			return nil
		}
		variant = variants[0]
	}
	return GetPreset(scene, variant)
}
