package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/rx/pkg/binding"
	"github.com/vango-dev/rx/pkg/state"
)

const defaultTracerName = "rx"

// Spans records batch commits and binding runs as OpenTelemetry spans.
// Spans are recorded after the fact with their measured start time.
// Single writes are not traced here; see middleware.Tracing.
type Spans struct {
	state.NopObserver
	tracer trace.Tracer
}

var (
	_ state.Observer   = (*Spans)(nil)
	_ binding.Observer = (*Spans)(nil)
)

// NewSpans creates a span observer. A nil tracer resolves the "rx" tracer
// from the global provider.
func NewSpans(tracer trace.Tracer) *Spans {
	if tracer == nil {
		tracer = otel.Tracer(defaultTracerName)
	}
	return &Spans{tracer: tracer}
}

// BatchCommitted implements state.Observer.
func (s *Spans) BatchCommitted(queued, applied int, elapsed time.Duration) {
	s.record("rx.batch", elapsed, "",
		attribute.Int("rx.batch.queued", queued),
		attribute.Int("rx.batch.applied", applied),
	)
}

// SubscriberFailed implements state.Observer.
func (s *Spans) SubscriberFailed(path string) {
	s.record("rx.subscriber", 0, "subscriber panicked",
		attribute.String("rx.path", path),
	)
}

// BindingRun implements binding.Observer.
func (s *Spans) BindingRun(name string, deps int, elapsed time.Duration) {
	s.record("rx.binding "+kind(name), elapsed, "",
		attribute.String("rx.binding", name),
		attribute.Int("rx.binding.deps", deps),
	)
}

// BindingFailed implements binding.Observer.
func (s *Spans) BindingFailed(name string) {
	s.record("rx.binding "+kind(name), 0, "binding failed",
		attribute.String("rx.binding", name),
	)
}

func (s *Spans) record(name string, elapsed time.Duration, failure string, attrs ...attribute.KeyValue) {
	end := time.Now()
	_, span := s.tracer.Start(context.Background(), name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(end.Add(-elapsed)),
		trace.WithAttributes(attrs...),
	)
	if failure != "" {
		span.SetStatus(codes.Error, failure)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}
