package automation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/world"
)

// Sweepable parameters.
const (
	ParamIterations = "iterations"
	ParamFriction   = "friction"
	ParamGravity    = "gravity"
	ParamMass       = "mass"
)

// ParameterSweep runs one scene across a range of a single parameter
type ParameterSweep struct {
	Config    *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds one sweep point
type SweepResult struct {
	ParamValue     float64
	MeanEnergy     float64
	MaxPenetration float64
	Stability      float64
	Unstable       bool
}

// apply sets the parameter on a copy of cfg.
func apply(cfg *config.Config, name string, v float64) (*config.Config, error) {
	out := cfg.Clone()
	switch name {
	case ParamIterations:
		out.Iterations = max(1, int(v+0.5))
	case ParamFriction:
		for i := range out.Bodies {
			f := v
			out.Bodies[i].Friction = &f
		}
	case ParamGravity:
		out.Gravity.Y = v
	case ParamMass:
		for i := range out.Bodies {
			if !out.Bodies[i].Static {
				out.Bodies[i].Mass = v
			}
		}
	default:
		return nil, fmt.Errorf("parameter %q is not sweepable", name)
	}
	return out, nil
}

func (s *ParameterSweep) values() []float64 {
	if s.NumSteps == 1 {
		return []float64{s.ParamMin}
	}
	paramStep := (s.ParamMax - s.ParamMin) / float64(s.NumSteps-1)
	vals := make([]float64, s.NumSteps)
	for i := range vals {
		vals[i] = s.ParamMin + float64(i)*paramStep
	}
	return vals
}

// RunSweep executes the sweep points concurrently
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if _, err := apply(sweep.Config, sweep.ParamName, sweep.ParamMin); err != nil {
		return nil, err
	}

	vals := sweep.values()
	build := func(idx int) (*world.World, []sim.Metric, error) {
		cfg, err := apply(sweep.Config, sweep.ParamName, vals[idx])
		if err != nil {
			return nil, nil, err
		}
		w, _, err := cfg.Build()
		if err != nil {
			return nil, nil, err
		}
		return w, metrics.Standard(), nil
	}

	runs, err := sim.NewEnsemble(build, len(vals)).Run(ctx, runConfig(sweep.Config))
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(vals))
	for i, r := range runs {
		results[i] = SweepResult{
			ParamValue:     vals[i],
			MeanEnergy:     r.Metrics["energy"],
			MaxPenetration: r.Metrics["max_penetration"],
			Stability:      r.Metrics["stability"],
			Unstable:       unstable(r),
		}
	}
	return results, nil
}

func runConfig(cfg *config.Config) sim.Config {
	return sim.Config{
		Dt:           cfg.Dt,
		Duration:     cfg.Duration,
		CullBelow:    cfg.CullBelow,
		CullInterval: world.CullInterval,
		RecordEvery:  max(1, int(cfg.Duration/cfg.Dt)),
	}
}

func unstable(r *sim.Result) bool {
	for _, err := range r.Errors {
		if errors.Is(err, world.ErrUnstable) {
			return true
		}
	}
	return false
}

// MonteCarloConfig jitters the starting position of every movable body
type MonteCarloConfig struct {
	Config       *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
	// Tolerance is the largest penetration a trial may reach and still
	// count as stable.
	Tolerance float64
}

// MonteCarloResult holds one trial
type MonteCarloResult struct {
	TrialID        int
	Offsets        []float64
	MaxPenetration float64
	Drift          float64
	Stable         bool
}

// RunMonteCarlo executes the trials concurrently
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial, got %d", cfg.NumTrials)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	// draw every trial's offsets up front so results depend only on the seed
	trials := make([]*config.Config, cfg.NumTrials)
	offsets := make([][]float64, cfg.NumTrials)
	for t := range trials {
		c := cfg.Config.Clone()
		for i := range c.Bodies {
			if c.Bodies[i].Static {
				continue
			}
			dx := (rng.Float64() - 0.5) * 2 * cfg.Perturbation
			dy := (rng.Float64() - 0.5) * 2 * cfg.Perturbation
			c.Bodies[i].X += dx
			c.Bodies[i].Y += dy
			offsets[t] = append(offsets[t], dx, dy)
		}
		trials[t] = c
	}

	build := func(idx int) (*world.World, []sim.Metric, error) {
		w, _, err := trials[idx].Build()
		if err != nil {
			return nil, nil, err
		}
		return w, []sim.Metric{metrics.NewPenetration(), metrics.NewDrift()}, nil
	}

	runs, err := sim.NewEnsemble(build, cfg.NumTrials).Run(ctx, runConfig(cfg.Config))
	if err != nil {
		return nil, err
	}

	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = metrics.DefaultPenetrationTolerance
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		pen := r.Metrics["max_penetration"]
		results[i] = MonteCarloResult{
			TrialID:        i,
			Offsets:        offsets[i],
			MaxPenetration: pen,
			Drift:          r.Metrics["drift"],
			Stable:         !unstable(r) && pen <= tolerance,
		}
	}
	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
