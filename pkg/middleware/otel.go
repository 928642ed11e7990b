package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/rx/pkg/state"
)

// Default tracer name for rx applications.
const defaultTracerName = "rx"

// TracingConfig configures the tracing middleware.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "rx").
	TracerName string

	// Tracer overrides the tracer resolved from the global provider.
	Tracer trace.Tracer

	// IncludeValues records the old and new values as span attributes.
	// Values may contain sensitive information, so this is disabled by default.
	IncludeValues bool

	// Filter determines which writes to trace.
	// If nil, all writes are traced.
	Filter func(w state.Write) bool

	// AttributeExtractor extracts custom attributes from a write.
	AttributeExtractor func(w state.Write) []attribute.KeyValue
}

// TracingOption configures the tracing middleware.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracer sets the tracer directly.
func WithTracer(tracer trace.Tracer) TracingOption {
	return func(c *TracingConfig) {
		c.Tracer = tracer
	}
}

// WithIncludeValues enables recording values on spans.
func WithIncludeValues(include bool) TracingOption {
	return func(c *TracingConfig) {
		c.IncludeValues = include
	}
}

// WithWriteFilter sets a filter function for writes.
func WithWriteFilter(filter func(w state.Write) bool) TracingOption {
	return func(c *TracingConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(w state.Write) []attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.AttributeExtractor = extractor
	}
}

// Tracing creates middleware that records a span for every write it sees.
// The value passes through unchanged.
func Tracing(opts ...TracingOption) state.Middleware {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer(config.TracerName)
	}

	return state.MiddlewareFunc(func(w state.Write) (any, error) {
		if config.Filter != nil && !config.Filter(w) {
			return w.New, nil
		}

		attrs := []attribute.KeyValue{
			attribute.String("rx.path", w.Path),
			attribute.Bool("rx.batching", w.Store.Batching()),
			attribute.String("rx.value_type", fmt.Sprintf("%T", w.New)),
		}
		if config.IncludeValues {
			attrs = append(attrs,
				attribute.String("rx.old", fmt.Sprint(w.Old)),
				attribute.String("rx.new", fmt.Sprint(w.New)),
			)
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(w)...)
		}

		_, span := tracer.Start(context.Background(), "rx.write "+w.Path,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		span.End()
		return w.New, nil
	})
}
