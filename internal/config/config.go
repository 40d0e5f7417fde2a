package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/solver"
	"github.com/san-kum/rigidsim/internal/world"
)

const (
	DefaultDt         = 1.0 / 60
	DefaultDuration   = 10.0
	DefaultIterations = solver.DefaultIterations
	DefaultGravityY   = 10.0
	DefaultMass       = 10.0
)

type Config struct {
	Scene        string        `yaml:"scene"`
	Dt           float64       `yaml:"dt"`
	Duration     float64       `yaml:"duration"`
	Iterations   int           `yaml:"iterations"`
	WarmStarting bool          `yaml:"warm_starting"`
	Gravity      GravityConfig `yaml:"gravity"`

	// CullBelow removes bodies whose y exceeds it; zero disables culling.
	CullBelow float64 `yaml:"cull_below"`

	Bodies []BodyConfig  `yaml:"bodies"`
	Joints []JointConfig `yaml:"joints,omitempty"`
}

type GravityConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type BodyConfig struct {
	Name     string  `yaml:"name,omitempty"`
	Shape    string  `yaml:"shape"`
	Width    float64 `yaml:"width,omitempty"`
	Height   float64 `yaml:"height,omitempty"`
	Radius   float64 `yaml:"radius,omitempty"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Rotation float64 `yaml:"rotation,omitempty"`
	Mass     float64 `yaml:"mass,omitempty"`

	// Static bodies get infinite mass regardless of Mass.
	Static   bool     `yaml:"static,omitempty"`
	Friction *float64 `yaml:"friction,omitempty"`
	VX       float64  `yaml:"vx,omitempty"`
	VY       float64  `yaml:"vy,omitempty"`
	Omega    float64  `yaml:"omega,omitempty"`
}

// JointConfig pins two bodies, given by index into Bodies, at world point (X, Y).
type JointConfig struct {
	Body1 int     `yaml:"body1"`
	Body2 int     `yaml:"body2"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene:        "stack",
		Dt:           DefaultDt,
		Duration:     DefaultDuration,
		Iterations:   DefaultIterations,
		WarmStarting: true,
		Gravity:      GravityConfig{Y: DefaultGravityY},
		Bodies: []BodyConfig{
			{Name: "ground", Shape: "box", Width: 200, Height: 20, Static: true},
			{Shape: "box", Width: 20, Height: 20, Y: -20, Mass: DefaultMass},
			{Shape: "box", Width: 20, Height: 20, Y: -40, Mass: DefaultMass},
			{Shape: "box", Width: 20, Height: 20, Y: -60, Mass: DefaultMass},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	// a file that lists bodies replaces the default scene rather than
	// appending to it
	cfg.Bodies = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Bodies) == 0 {
		if p := Named(cfg.Scene); p != nil {
			cfg.Bodies, cfg.Joints = p.Bodies, p.Joints
		} else {
			cfg.Bodies = DefaultConfig().Bodies
		}
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks run parameters and the scene description.
func (c *Config) Validate() error {
	var errs []error
	if c.Dt <= 0 {
		errs = append(errs, fmt.Errorf("dt must be positive, got %f", c.Dt))
	}
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %f", c.Duration))
	}
	if c.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("iterations must be positive, got %d", c.Iterations))
	}
	for i, b := range c.Bodies {
		if _, err := b.shape(); err != nil {
			errs = append(errs, fmt.Errorf("body %d: %w", i, err))
		}
		if !b.Static && !(b.Mass > 0) {
			errs = append(errs, fmt.Errorf("body %d: %w", i, body.ErrInvalidMass))
		}
	}
	for i, j := range c.Joints {
		if j.Body1 == j.Body2 {
			errs = append(errs, fmt.Errorf("joint %d: joins body %d to itself", i, j.Body1))
		}
		if !c.hasBody(j.Body1) || !c.hasBody(j.Body2) {
			errs = append(errs, fmt.Errorf("joint %d: body index out of range", i))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) hasBody(i int) bool { return i >= 0 && i < len(c.Bodies) }

func (b BodyConfig) shape() (shape.Shape, error) {
	kind, err := shape.ParseKind(b.Shape)
	if err != nil {
		return nil, err
	}
	switch kind {
	case shape.KindCircle:
		if !(b.Radius > 0) {
			return nil, fmt.Errorf("circle radius must be positive, got %f", b.Radius)
		}
		return shape.NewCircle(b.Radius), nil
	default:
		if !(b.Width > 0) || !(b.Height > 0) {
			return nil, fmt.Errorf("box size must be positive, got %fx%f", b.Width, b.Height)
		}
		return shape.NewBox(b.Width, b.Height), nil
	}
}

// NewBody creates the configured body.
func (b BodyConfig) NewBody() (*body.Body, error) {
	s, err := b.shape()
	if err != nil {
		return nil, err
	}
	mass := b.Mass
	if b.Static {
		mass = body.Infinite
	}
	bd, err := body.New(s, mass)
	if err != nil {
		return nil, err
	}
	bd.Position = geom.V(b.X, b.Y)
	bd.Rotation = b.Rotation
	bd.Velocity = geom.V(b.VX, b.VY)
	bd.AngularVelocity = b.Omega
	if b.Friction != nil {
		bd.Friction = *b.Friction
	}
	return bd, nil
}

// Options returns the world options for the solver settings.
func (c *Config) Options() []world.Option {
	return []world.Option{
		world.WithIterations(c.Iterations),
		world.WithWarmStarting(c.WarmStarting),
	}
}

// Build validates the config and creates its world. The returned handles
// are in Bodies order.
func (c *Config) Build() (*world.World, []world.BodyID, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	w := world.New(geom.V(c.Gravity.X, c.Gravity.Y), c.Options()...)
	ids := make([]world.BodyID, len(c.Bodies))
	for i, bc := range c.Bodies {
		b, err := bc.NewBody()
		if err != nil {
			return nil, nil, fmt.Errorf("body %d: %w", i, err)
		}
		ids[i] = w.AddBody(b)
	}

	for _, jc := range c.Joints {
		b1, _ := w.Body(ids[jc.Body1])
		b2, _ := w.Body(ids[jc.Body2])
		w.AddJoint(solver.NewJoint(b1, b2, geom.V(jc.X, jc.Y)))
	}
	return w, ids, nil
}

// Lookup returns the index of the body with the given name.
func (c *Config) Lookup(name string) (int, bool) {
	for i, b := range c.Bodies {
		if b.Name != "" && b.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = make([]BodyConfig, len(c.Bodies))
	for i, b := range c.Bodies {
		if b.Friction != nil {
			f := *b.Friction
			b.Friction = &f
		}
		out.Bodies[i] = b
	}
	out.Joints = append([]JointConfig(nil), c.Joints...)
	return &out
}
