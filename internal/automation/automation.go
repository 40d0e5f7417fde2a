package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/world"
)

// Event actions.
const (
	ActionAdd      = "add"
	ActionRemove   = "remove"
	ActionForce    = "force"
	ActionMove     = "move"
	ActionVelocity = "velocity"
	ActionCull     = "cull"
	ActionGravity  = "gravity"
)

var ErrUnknownAction = errors.New("automation: unknown action")

// Scenario is a scene plus a timeline of world edits.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Scene       string  `yaml:"scene"`
	Dt          float64 `yaml:"dt"`
	Duration    float64 `yaml:"duration"`
	Events      []Event `yaml:"events"`
}

// Event is one timed edit. Body names a body by its config name or index;
// X and Y carry the vector argument of the action.
type Event struct {
	At     float64            `yaml:"at"`
	Action string             `yaml:"action"`
	Body   string             `yaml:"body,omitempty"`
	X      float64            `yaml:"x,omitempty"`
	Y      float64            `yaml:"y,omitempty"`
	Angle  float64            `yaml:"angle,omitempty"`
	Spawn  *config.BodyConfig `yaml:"spawn,omitempty"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// Config resolves the scenario's scene, falling back to the default
// scene, with the scenario's timing applied.
func (s *Scenario) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Scene != "" {
		cfg = config.Named(s.Scene)
		if cfg == nil {
			return nil, fmt.Errorf("scenario %q: unknown scene %q", s.Name, s.Scene)
		}
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	return cfg, nil
}

// Timeline fires scenario events as simulated time passes. It implements
// sim.Controller; events go through the world's command queue.
type Timeline struct {
	mu     sync.Mutex
	events []Event
	next   int
	names  map[string]world.BodyID
	ids    []world.BodyID
	errs   []error
}

// NewTimeline orders events by time. ids are the handles of the scene's
// bodies in config order, and names maps config names to them.
func NewTimeline(events []Event, ids []world.BodyID, names map[string]world.BodyID) *Timeline {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b Event) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	if names == nil {
		names = make(map[string]world.BodyID)
	}
	return &Timeline{events: sorted, ids: slices.Clone(ids), names: names}
}

// Remaining is the number of events not yet fired.
func (tl *Timeline) Remaining() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return len(tl.events) - tl.next
}

// Err joins the failures of every fired event.
func (tl *Timeline) Err() error {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return errors.Join(tl.errs...)
}

func (tl *Timeline) Apply(w *world.World, t float64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	for tl.next < len(tl.events) && tl.events[tl.next].At <= t {
		ev := tl.events[tl.next]
		if err := tl.fire(w, ev); err != nil {
			tl.errs = append(tl.errs, fmt.Errorf("event %d at %.3fs: %w", tl.next, ev.At, err))
		}
		tl.next++
	}
}

func (tl *Timeline) resolve(ref string) (world.BodyID, error) {
	if id, ok := tl.names[ref]; ok {
		return id, nil
	}
	i, err := strconv.Atoi(ref)
	if err != nil || i < 0 || i >= len(tl.ids) {
		return 0, fmt.Errorf("%w: %q", world.ErrUnknownBody, ref)
	}
	return tl.ids[i], nil
}

func (tl *Timeline) fire(w *world.World, ev Event) error {
	v := geom.V(ev.X, ev.Y)
	switch ev.Action {
	case ActionAdd:
		if ev.Spawn == nil {
			return errors.New("add needs a spawn body")
		}
		b, err := ev.Spawn.NewBody()
		if err != nil {
			return err
		}
		id := w.QueueAddBody(b)
		tl.ids = append(tl.ids, id)
		if ev.Spawn.Name != "" {
			tl.names[ev.Spawn.Name] = id
		}
		return nil
	case ActionCull:
		w.Cull(ev.Y)
		return nil
	case ActionGravity:
		w.Gravity = v
		return nil
	}

	id, err := tl.resolve(ev.Body)
	if err != nil {
		return err
	}
	switch ev.Action {
	case ActionRemove:
		w.QueueRemoveBody(id)
	case ActionForce:
		w.QueueForce(id, v, ev.Angle)
	case ActionMove:
		w.QueueMove(id, v, ev.Angle)
	case ActionVelocity:
		w.QueueSetVelocity(id, v, ev.Angle)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, ev.Action)
	}
	return nil
}

// Setup builds the scenario's world and a simulator driving its timeline.
func Setup(scenario *Scenario) (*sim.Simulator, *Timeline, *config.Config, error) {
	cfg, err := scenario.Config()
	if err != nil {
		return nil, nil, nil, err
	}
	w, ids, err := cfg.Build()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	names := make(map[string]world.BodyID)
	for i, b := range cfg.Bodies {
		if b.Name != "" {
			names[b.Name] = ids[i]
		}
	}
	tl := NewTimeline(scenario.Events, ids, names)

	s := sim.New(w)
	s.AddController(tl)
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}
	return s, tl, cfg, nil
}

// RunScenario executes the scenario to completion. Event failures are
// returned together with the result.
func RunScenario(ctx context.Context, scenario *Scenario, logger *log.Logger) (*sim.Result, error) {
	s, tl, cfg, err := Setup(scenario)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		s.SetLogger(logger)
		logger.Info("running scenario", "name", scenario.Name, "events", len(scenario.Events))
	}

	result, err := s.Run(ctx, sim.Config{
		Dt:           cfg.Dt,
		Duration:     cfg.Duration,
		CullBelow:    cfg.CullBelow,
		CullInterval: world.CullInterval,
	})
	if err != nil {
		return result, err
	}
	return result, tl.Err()
}
