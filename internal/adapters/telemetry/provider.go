package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

// Provider owns a tracer provider whose spans are bridged to a Progress sink.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider creates a tracer provider that forwards unit spans to progress.
// Extra processors, such as a trace exporter, receive every span.
func NewProvider(progress ports.Progress, extra ...sdktrace.SpanProcessor) *Provider {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSpanProcessor(NewBridge(progress)),
	}
	for _, p := range extra {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	return &Provider{tp: sdktrace.NewTracerProvider(opts...)}
}

// Install registers the provider as the global OpenTelemetry tracer provider.
func (p *Provider) Install() {
	otel.SetTracerProvider(p.tp)
}

// Tracer returns an OTelTracer bound to this provider that announces plans to progress.
func (p *Provider) Tracer(name string, progress ports.Progress) *OTelTracer {
	return NewOTelTracer(name, WithTracerProvider(p.tp)).WithProgress(progress)
}

// Shutdown ends the provider and flushes every processor.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}
