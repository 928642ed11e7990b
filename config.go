package rx

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/rx/pkg/dom"
	"github.com/vango-dev/rx/pkg/scheduler"
	"github.com/vango-dev/rx/pkg/state"
	"github.com/vango-dev/rx/pkg/telemetry"
	"github.com/vango-dev/rx/pkg/ui"
)

// DefaultBudget is the default number of runs a binding may make per tick.
const DefaultBudget = 100

// Config configures a Runtime.
type Config struct {
	// Logger is the structured logger for the runtime.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// DevMode logs every state write at debug level and renders pages
	// pretty-printed.
	DevMode bool

	// InitialState seeds the store. It is deep-copied.
	InitialState map[string]any

	// Middleware is installed on the store in order.
	Middleware []state.Middleware

	// Adapter renders mounted trees. Defaults to an in-memory
	// *dom.Document.
	Adapter dom.Adapter

	// Loop runs the reactive core. A new loop is created if nil.
	Loop *scheduler.Loop

	// Budget caps binding runs per tick. Zero means DefaultBudget; a
	// negative value disables the cap.
	Budget int

	// Metrics, if set, observes the store and every binding.
	Metrics *telemetry.Metrics

	// Tracer, if set, records spans for writes, batches and binding runs.
	Tracer trace.Tracer

	// Placeholder is shown for pending async content when no enclosing
	// unit configures one. Defaults to ui.DefaultPlaceholder.
	Placeholder *ui.Placeholder
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Budget: DefaultBudget,
	}
}

func (c Config) budget() int {
	switch {
	case c.Budget == 0:
		return DefaultBudget
	case c.Budget < 0:
		return 0
	default:
		return c.Budget
	}
}
