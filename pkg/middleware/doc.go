// Package middleware provides state middleware: value transforms that run
// on every write before it reaches the store.
//
// Middleware runs in registration order, once per applied write (once per
// queued path when a batch commits). Each receives the value produced by
// the previous one. Returning the old value keeps the stored value as is,
// which also suppresses notification.
//
//	store := state.New(state.Config{
//	    Middleware: []state.Middleware{
//	        middleware.Logging(slog.LevelDebug),
//	        middleware.ReadOnly("config"),
//	        middleware.Coerce("count", middleware.ToInt),
//	        middleware.Tracing(),
//	    },
//	})
//
// # OpenTelemetry
//
// Tracing records a span per write using the global tracer provider or the
// tracer given with WithTracer. Configure the provider in main():
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
package middleware
