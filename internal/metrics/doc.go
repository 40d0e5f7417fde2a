// Package metrics provides [sim.Metric] implementations that summarise a run.
package metrics

import "github.com/san-kum/rigidsim/internal/sim"

// DefaultPenetrationTolerance is the depth above which a step counts
// against [Stability].
const DefaultPenetrationTolerance = 1.0

// Standard returns a fresh set of the metrics most commands report.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewEnergy(),
		NewContacts(),
		NewPenetration(),
		NewStability(DefaultPenetrationTolerance),
		NewDrift(),
	}
}
