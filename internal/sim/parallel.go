package sim

import (
	"context"
	"sync"

	"github.com/san-kum/rigidsim/internal/world"
)

// Builder creates the world and metrics for one ensemble member.
type Builder func(idx int) (*world.World, []Metric, error)

// Ensemble runs independent worlds concurrently, one goroutine per member.
// Worlds share nothing, so no locking is needed.
type Ensemble struct {
	build   Builder
	numRuns int
}

func NewEnsemble(build Builder, numRuns int) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			w, metrics, err := e.build(idx)
			if err != nil {
				errs[idx] = err
				return
			}
			sim := New(w)
			for _, m := range metrics {
				sim.AddMetric(m)
			}
			results[idx], errs[idx] = sim.Run(ctx, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
