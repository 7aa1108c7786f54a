package buildexec

import (
	"github.com/maxtruxa/bpt/internal/parallel"
)

// runPhase drives parallel.Run for one build phase, recording a
// bpt_build_items_total{phase,outcome} observation per item.
func runPhase[T any](phase string, jobs int, items []T, fn func(T) error) error {
	wrapped := func(item T) error {
		err := fn(item)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		phaseTotal.WithLabelValues(phase, outcome).Inc()
		return err
	}
	return parallel.Run(items, jobs, wrapped)
}
