package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// Bridge implements sdktrace.SpanProcessor to forward unit spans to a Progress sink.
// Spans marked with InternalKey are ignored.
type Bridge struct {
	progress ports.Progress
}

// NewBridge returns a new Bridge.
func NewBridge(progress ports.Progress) *Bridge {
	return &Bridge{
		progress: progress,
	}
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	if b.progress == nil || isInternal(s.Attributes()) {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	b.progress.OnUnitStart(sc.SpanID().String(), s.Name(), s.StartTime())
}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.progress == nil || isInternal(s.Attributes()) {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	var err error
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "unit failed"
		}
		err = errors.New(desc)
	}

	b.progress.OnUnitComplete(sc.SpanID().String(), s.EndTime(), err)
}

// ForceFlush flushes the progress sink.
func (b *Bridge) ForceFlush(_ context.Context) error {
	if b.progress == nil {
		return nil
	}
	return b.progress.Flush()
}

// Shutdown flushes the progress sink.
func (b *Bridge) Shutdown(ctx context.Context) error {
	return b.ForceFlush(ctx)
}

func isInternal(attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		if kv.Key == InternalKey {
			return kv.Value.AsBool()
		}
	}
	return false
}
