package binding

import (
	"log/slog"

	"github.com/vango-dev/rx/pkg/scheduler"
)

// Option configures a Binding.
type Option func(*Binding)

// WithName names the binding in logs and metrics.
func WithName(name string) Option {
	return func(b *Binding) {
		b.name = name
	}
}

// WithPending sets the callback that shows a placeholder while an async
// result is outstanding. Without it the prior output stays visible.
func WithPending(fn func()) Option {
	return func(b *Binding) {
		b.onPending = fn
	}
}

// WithRejected sets the callback that renders an error in place of the
// pending placeholder when an async result is rejected.
func WithRejected(fn func(err error)) Option {
	return func(b *Binding) {
		b.onRejected = fn
	}
}

// WithPromiseTracker registers every async result with t.
func WithPromiseTracker(t *scheduler.PromiseTracker) Option {
	return func(b *Binding) {
		b.promises = t
	}
}

// WithBudget limits the binding's runs per tick.
func WithBudget(budget *Budget) Option {
	return func(b *Binding) {
		b.budget = budget
	}
}

// WithEqual replaces the deep-equality check used to skip redundant applies.
func WithEqual(eq func(a, b any) bool) Option {
	return func(b *Binding) {
		if eq != nil {
			b.equal = eq
		}
	}
}

// WithObserver reports runs and failures to o.
func WithObserver(o Observer) Option {
	return func(b *Binding) {
		if o != nil {
			b.observer = o
		}
	}
}

// WithLogger overrides the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binding) {
		if logger != nil {
			b.logger = logger
		}
	}
}
