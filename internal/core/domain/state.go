package domain

// UnitState is the per-run lifecycle state of a build unit.
type UnitState uint8

const (
	// StateUnstat means the unit's assets have not all been stat'd.
	StateUnstat UnitState = iota
	// StateCurrent means the artifact is newer than every dependency. Terminal.
	StateCurrent
	// StateOutdated means the artifact is missing or older than a dependency.
	StateOutdated
	// StateSkipped means a source could not be stat'd or read; generation was withheld. Terminal.
	StateSkipped
	// StateLoading means the unit is waiting for its dependency contents.
	StateLoading
	// StateRendering means the renderer is running or the artifact is being written.
	StateRendering
	// StateDone means the artifact was regenerated. Terminal.
	StateDone
	// StateFailed means rendering or writing failed. Terminal.
	StateFailed
)

// String returns the lowercase name of the state.
func (s UnitState) String() string {
	switch s {
	case StateUnstat:
		return "unstat"
	case StateCurrent:
		return "current"
	case StateOutdated:
		return "outdated"
	case StateSkipped:
		return "skipped"
	case StateLoading:
		return "loading"
	case StateRendering:
		return "rendering"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen within the run.
func (s UnitState) Terminal() bool {
	switch s {
	case StateCurrent, StateSkipped, StateDone, StateFailed:
		return true
	default:
		return false
	}
}
