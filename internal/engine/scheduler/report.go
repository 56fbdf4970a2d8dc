package scheduler

import (
	"errors"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// UnitResult is the outcome of one unit in a run.
type UnitResult struct {
	Target   string
	Kind     domain.RendererKind
	State    domain.UnitState
	Reason   string
	Err      error
	Duration time.Duration
}

// Report collects the results of a run in unit order.
type Report struct {
	Units []UnitResult
}

// Count returns how many units ended in state.
func (r *Report) Count(state domain.UnitState) int {
	n := 0
	for _, u := range r.Units {
		if u.State == state {
			n++
		}
	}
	return n
}

// Outdated returns the units that were (or, in a plan, would be) regenerated.
func (r *Report) Outdated() []UnitResult {
	var out []UnitResult
	for _, u := range r.Units {
		if u.State == domain.StateOutdated || u.State == domain.StateDone || u.State == domain.StateFailed {
			out = append(out, u)
		}
	}
	return out
}

// Err returns domain.ErrBuildFailed joined with every unit error, or nil if no unit failed or was skipped.
func (r *Report) Err() error {
	var errs []error
	for _, u := range r.Units {
		if u.Err != nil {
			errs = append(errs, u.Err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return zerr.With(zerr.Wrap(errors.Join(errs...), domain.ErrBuildFailed.Error()), "failed", len(errs))
}
