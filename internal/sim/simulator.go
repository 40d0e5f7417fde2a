package sim

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/san-kum/rigidsim/internal/world"
)

type Simulator struct {
	world       *world.World
	controllers []Controller
	metrics     []Metric
	observers   []Observer
	logger      *log.Logger
}

func New(w *world.World) *Simulator {
	return &Simulator{
		world:       w,
		controllers: make([]Controller, 0),
		metrics:     make([]Metric, 0),
		observers:   make([]Observer, 0),
		logger:      log.New(io.Discard),
	}
}

func (s *Simulator) World() *world.World { return s.world }

func (s *Simulator) AddController(c Controller) { s.controllers = append(s.controllers, c) }
func (s *Simulator) AddMetric(m Metric)         { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)     { s.observers = append(s.observers, o) }

func (s *Simulator) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Run advances the world for cfg.Duration in steps of cfg.Dt, recording
// frames and metrics. Cancelling ctx returns the partial result with ctx.Err().
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	every := max(cfg.RecordEvery, 1)
	result := &Result{
		Frames:  make([]Frame, 0, steps/every+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Debug("run started", "bodies", s.world.Len(), "steps", steps, "dt", cfg.Dt)
	result.Frames = append(result.Frames, Capture(s.world))

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		err := s.Step(cfg, i)
		if err != nil {
			result.Errors = append(result.Errors, err)
			if errors.Is(err, world.ErrUnstable) {
				s.logger.Error("simulation unstable", "step", i, "err", err)
				break
			}
			s.logger.Warn("queued command failed", "step", i, "err", err)
		}
		result.StepsTaken++

		if cfg.CullBelow != 0 && cfg.CullInterval > 0 && (i+1)%cfg.CullInterval == 0 {
			culled := s.world.Cull(cfg.CullBelow)
			if len(culled) > 0 {
				s.logger.Debug("culled bodies", "count", len(culled), "step", i)
				result.Culled = append(result.Culled, culled...)
			}
		}

		if (i+1)%every == 0 || i == steps-1 {
			result.Frames = append(result.Frames, Capture(s.world))
		}
	}

	s.finish(result)
	s.logger.Debug("run finished", "steps", result.StepsTaken, "errors", len(result.Errors))
	return result, nil
}

// Step applies controllers, updates the world once, then feeds metrics and
// observers. Failed queued commands are returned but do not skip the
// observers; an unstable step does. It is the unit the live viewer drives.
func (s *Simulator) Step(cfg Config, i int) error {
	t := s.world.Time()
	for _, c := range s.controllers {
		c.Apply(s.world, t)
	}
	err := s.world.Update(cfg.Dt)
	if errors.Is(err, world.ErrUnstable) {
		return err
	}
	t = s.world.Time()
	for _, m := range s.metrics {
		m.Observe(s.world, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(s.world, t)
	}
	return err
}

func (s *Simulator) finish(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.CullInterval < 0 {
		return fmt.Errorf("cull interval must not be negative, got %d", cfg.CullInterval)
	}
	return nil
}
