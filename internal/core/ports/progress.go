package ports

import (
	"time"
)

// Progress is the abstraction for build progress output.
// It decouples telemetry collection from presentation.
//
//go:generate mockgen -source=progress.go -destination=mocks/mock_progress.go -package=mocks
type Progress interface {
	// OnPlanEmit is called once per run with the targets about to be evaluated.
	OnPlanEmit(targets []string)

	// OnUnitStart is called when a unit span begins.
	OnUnitStart(spanID, name string, startTime time.Time)

	// OnUnitComplete is called when a unit span ends.
	// err is nil if the span finished successfully.
	OnUnitComplete(spanID string, endTime time.Time, err error)

	// Flush writes any buffered output.
	Flush() error
}
