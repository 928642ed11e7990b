package binding

import (
	"log/slog"
	"time"

	rxerrors "github.com/vango-dev/rx/internal/errors"
	"github.com/vango-dev/rx/pkg/scheduler"
	"github.com/vango-dev/rx/pkg/state"
)

// ComputeFunc produces a binding's value. It may return a *scheduler.Future.
type ComputeFunc func() any

// ApplyFunc applies a computed value to its target.
type ApplyFunc func(v any)

// Binding pairs a compute function with an apply function and keeps the
// target up to date with the state compute reads.
//
// A Binding is not safe for concurrent use; it runs on its store's loop.
type Binding struct {
	id    uint64
	name  string
	store *state.Store

	compute ComputeFunc
	apply   ApplyFunc
	equal   func(a, b any) bool

	// deps is the dependency set of the last run; unsubs holds one
	// unsubscribe handle per path in it.
	deps   *state.DependencySet
	unsubs map[string]func()

	// last is a deep copy of the last applied value.
	last    any
	applied bool

	// generation increases on every completed run; an async result applies only if
	// its generation is still current.
	generation uint64

	onPending  func()
	onRejected func(err error)
	promises   *scheduler.PromiseTracker
	budget     *Budget
	observer   Observer
	logger     *slog.Logger

	runs      int
	running   bool
	scheduled bool
	disposed  bool
}

// New creates a binding. It does not run until Run is called.
func New(store *state.Store, compute ComputeFunc, apply ApplyFunc, opts ...Option) *Binding {
	b := &Binding{
		id:       state.NextID(),
		store:    store,
		compute:  compute,
		apply:    apply,
		equal:    state.Equal,
		unsubs:   make(map[string]func()),
		observer: NopObserver{},
		logger:   store.Logger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ID implements state.Listener.
func (b *Binding) ID() uint64 {
	return b.id
}

// Name returns the binding's name, if any.
func (b *Binding) Name() string {
	return b.name
}

// Notify implements state.Listener. A notification re-runs the binding.
func (b *Binding) Notify(c state.Change) {
	if b.disposed {
		return
	}
	if b.running {
		b.logger.Warn("binding notified during its own run",
			slog.String("code", rxerrors.CodeBinding),
			slog.String("binding", b.name),
			slog.String("changed", c.Changed))
		return
	}
	b.Run()
}

// Run computes and applies the binding once, then re-subscribes to exactly
// the paths compute read.
func (b *Binding) Run() {
	if b.disposed || b.running {
		return
	}
	if !b.budget.allow(b.id) {
		b.deferRun()
		return
	}

	b.running = true
	defer func() { b.running = false }()
	b.runs++
	start := time.Now()

	deps := state.NewDependencySet()
	result, err := b.evaluate(deps)
	if err != nil {
		b.logger.Error("binding compute failed",
			slog.String("code", rxerrors.CodeBinding),
			slog.String("binding", b.name),
			slog.Any("error", err))
		b.observer.BindingFailed(b.name)
		// Keep listening to everything the failed run may depend on.
		for _, p := range b.deps.Paths() {
			deps.Add(p)
		}
		b.resubscribe(deps)
		return
	}

	b.resubscribe(deps)
	b.generation++
	b.handle(result, b.generation)
	b.observer.BindingRun(b.name, deps.Len(), time.Since(start))
}

func (b *Binding) evaluate(deps *state.DependencySet) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rxerrors.FromPanic(r, rxerrors.CodeBinding)
		}
	}()
	b.store.Tracker().Run(deps, func() {
		result = b.compute()
	})
	return result, nil
}

func (b *Binding) deferRun() {
	if b.scheduled {
		return
	}
	b.scheduled = true
	b.logger.Debug("binding over budget, deferring run",
		slog.String("binding", b.name))
	b.store.Loop().Defer(func() {
		b.scheduled = false
		b.Run()
	})
}

// resubscribe diffs the new dependency set against the current one.
func (b *Binding) resubscribe(next *state.DependencySet) {
	for path, unsub := range b.unsubs {
		if !next.Has(path) {
			unsub()
			delete(b.unsubs, path)
		}
	}
	for _, path := range next.Paths() {
		if _, ok := b.unsubs[path]; !ok {
			b.unsubs[path] = b.store.Watch(path, b)
		}
	}
	b.deps = next
}

func (b *Binding) handle(result any, gen uint64) {
	f, ok := result.(*scheduler.Future)
	if !ok {
		b.applyValue(result)
		return
	}

	if b.promises != nil {
		b.promises.Track(f)
	}
	if !f.Settled() && b.onPending != nil {
		b.applied = false
		b.safely("pending", b.onPending)
	}
	f.Then(func(v any, err error) {
		if b.disposed || gen != b.generation {
			return
		}
		if err != nil {
			b.logger.Error("binding async result rejected",
				slog.String("code", rxerrors.CodeAsyncRejection),
				slog.String("binding", b.name),
				slog.Any("error", err))
			b.observer.BindingFailed(b.name)
			if b.onRejected != nil {
				b.applied = false
				b.safely("rejected", func() { b.onRejected(err) })
			}
			return
		}
		b.applyValue(v)
	})
}

func (b *Binding) applyValue(v any) {
	if b.applied && b.equal(b.last, v) {
		return
	}
	b.last = state.Copy(v)
	b.applied = true
	b.safely("apply", func() { b.apply(v) })
}

// safely runs a target callback with panic isolation and tracking disabled.
func (b *Binding) safely(stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("binding apply failed",
				slog.String("code", rxerrors.CodeBinding),
				slog.String("binding", b.name),
				slog.String("stage", stage),
				slog.Any("panic", r))
			b.observer.BindingFailed(b.name)
		}
	}()
	b.store.Tracker().Untracked(fn)
}

// Dispose unsubscribes the binding from every path. Pending async results
// are ignored once disposed. Dispose is idempotent.
func (b *Binding) Dispose() {
	if b.disposed {
		return
	}
	b.disposed = true
	b.generation++
	for path, unsub := range b.unsubs {
		unsub()
		delete(b.unsubs, path)
	}
	b.deps = nil
}

// Disposed reports whether Dispose has been called.
func (b *Binding) Disposed() bool {
	return b.disposed
}

// Deps returns the paths read by the last run, in read order.
func (b *Binding) Deps() []string {
	return b.deps.Paths()
}

// Value returns the last applied value and whether anything was applied.
func (b *Binding) Value() (any, bool) {
	return b.last, b.applied
}

// Runs returns how many times compute has been evaluated.
func (b *Binding) Runs() int {
	return b.runs
}
