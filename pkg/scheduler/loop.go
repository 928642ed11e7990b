package scheduler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// LoopConfig configures a Loop.
type LoopConfig struct {
	// Logger receives task panics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Loop is a single-threaded cooperative task loop.
//
// Posting is safe from any goroutine. Tasks themselves run on whichever
// goroutine is driving the loop; only one goroutine may drive it at a time.
type Loop struct {
	mu    sync.Mutex
	macro []func()
	micro []func()
	wake  chan struct{}

	tickHooks []func()
	ticks     uint64

	logger *slog.Logger
}

// NewLoop creates an idle loop.
func NewLoop(cfg LoopConfig) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Post queues fn as a macrotask. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.macro = append(l.macro, fn)
	l.mu.Unlock()
	l.signal()
}

// Defer queues fn as a zero-delay macrotask.
// It is an alias of Post kept separate for readability at call sites that
// rely on "after the current task and its microtasks" ordering.
func (l *Loop) Defer(fn func()) {
	l.Post(fn)
}

// Microtask queues fn to run before the next macrotask.
func (l *Loop) Microtask(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.micro = append(l.micro, fn)
	l.mu.Unlock()
	l.signal()
}

// After posts fn as a macrotask once d has elapsed.
// The returned function cancels the timer if it has not fired yet.
func (l *Loop) After(d time.Duration, fn func()) (cancel func()) {
	t := time.AfterFunc(d, func() { l.Post(fn) })
	return func() { t.Stop() }
}

// OnTick registers fn to run at the start of every macrotask.
// Used for per-tick budgets.
func (l *Loop) OnTick(fn func()) {
	l.mu.Lock()
	l.tickHooks = append(l.tickHooks, fn)
	l.mu.Unlock()
}

// Ticks returns the number of macrotasks executed so far.
func (l *Loop) Ticks() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks
}

// Idle reports whether both queues are empty.
func (l *Loop) Idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.macro) == 0 && len(l.micro) == 0
}

// Drain runs queued work on the calling goroutine until both queues are
// empty. It never blocks waiting for work posted by other goroutines.
func (l *Loop) Drain() {
	for l.step() {
	}
}

// Run drives the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunUntil drives the loop on the calling goroutine until cond reports true
// or ctx is cancelled. cond is evaluated between tasks, on the loop.
func (l *Loop) RunUntil(ctx context.Context, cond func() bool) error {
	for {
		if cond() {
			return nil
		}
		if l.step() {
			continue
		}
		if cond() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// step drains the microtask queue, or runs one macrotask followed by all
// microtasks. Reports whether anything ran.
func (l *Loop) step() bool {
	if l.drainMicro() {
		return true
	}

	l.mu.Lock()
	if len(l.macro) == 0 {
		l.mu.Unlock()
		return false
	}
	fn := l.macro[0]
	l.macro[0] = nil
	l.macro = l.macro[1:]
	l.ticks++
	hooks := make([]func(), len(l.tickHooks))
	copy(hooks, l.tickHooks)
	l.mu.Unlock()

	for _, h := range hooks {
		l.exec(h)
	}
	l.exec(fn)
	l.drainMicro()
	return true
}

func (l *Loop) drainMicro() bool {
	ran := false
	for {
		l.mu.Lock()
		if len(l.micro) == 0 {
			l.mu.Unlock()
			return ran
		}
		fn := l.micro[0]
		l.micro[0] = nil
		l.micro = l.micro[1:]
		l.mu.Unlock()

		l.exec(fn)
		ran = true
	}
}

// exec runs a task with panic recovery so one failing task cannot stop the loop.
func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("scheduler task panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
