package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// FutureState is the settlement state of a Future.
type FutureState uint8

const (
	Pending FutureState = iota
	Fulfilled
	Rejected
)

// String returns a human-readable name for the state.
func (s FutureState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ErrNilFutureError is used when a future is rejected with a nil error.
var ErrNilFutureError = errors.New("scheduler: future rejected with nil error")

// Future is an asynchronous result that settles exactly once.
//
// Resolve and Reject are safe from any goroutine; the first settlement wins.
// Continuations registered with Then always run on the owning Loop.
type Future struct {
	loop *Loop

	mu        sync.Mutex
	state     FutureState
	value     any
	err       error
	callbacks []func(any, error)
}

// NewFuture creates a pending future owned by the loop.
func (l *Loop) NewFuture() *Future {
	return &Future{loop: l}
}

// Resolved returns an already fulfilled future.
func (l *Loop) Resolved(v any) *Future {
	f := l.NewFuture()
	f.Resolve(v)
	return f
}

// Rejected returns an already rejected future.
func (l *Loop) Rejected(err error) *Future {
	f := l.NewFuture()
	f.Reject(err)
	return f
}

// Go runs fn on a new goroutine and returns a future settled with its result.
// A panic in fn rejects the future.
func (l *Loop) Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Future {
	f := l.NewFuture()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Reject(fmt.Errorf("scheduler: panic in async task: %v", r))
			}
		}()
		v, err := fn(ctx)
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}

// Resolve fulfills the future with v. If v is itself a *Future, this future
// adopts its eventual state instead.
func (f *Future) Resolve(v any) {
	if inner, ok := v.(*Future); ok {
		if inner == f {
			f.Reject(errors.New("scheduler: future resolved with itself"))
			return
		}
		inner.Then(func(v any, err error) {
			if err != nil {
				f.Reject(err)
				return
			}
			f.Resolve(v)
		})
		return
	}
	f.settle(Fulfilled, v, nil)
}

// Reject settles the future with err.
func (f *Future) Reject(err error) {
	if err == nil {
		err = ErrNilFutureError
	}
	f.settle(Rejected, nil, err)
}

func (f *Future) settle(state FutureState, v any, err error) {
	f.mu.Lock()
	if f.state != Pending {
		f.mu.Unlock()
		return
	}
	f.state = state
	f.value = v
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		f.schedule(cb, v, err)
	}
}

// Then registers fn to run on the loop once the future settles.
// If it has already settled, fn is queued as a microtask immediately.
func (f *Future) Then(fn func(v any, err error)) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	if f.state == Pending {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	f.schedule(fn, v, err)
}

func (f *Future) schedule(fn func(any, error), v any, err error) {
	f.loop.Microtask(func() { fn(v, err) })
}

// State returns the current settlement state.
func (f *Future) State() FutureState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Settled reports whether the future is fulfilled or rejected.
func (f *Future) Settled() bool {
	return f.State() != Pending
}

// Result returns the settled value and error. Both are zero while pending.
func (f *Future) Result() (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// IsPending reports whether v is a *Future that has not settled yet.
func IsPending(v any) bool {
	f, ok := v.(*Future)
	return ok && !f.Settled()
}

// All returns a future fulfilled with the values of every input, in order,
// or rejected with the first rejection.
func All(l *Loop, futures []*Future) *Future {
	out := l.NewFuture()
	if len(futures) == 0 {
		out.Resolve([]any{})
		return out
	}

	values := make([]any, len(futures))
	remaining := len(futures)
	for i, f := range futures {
		f.Then(func(v any, err error) {
			// Continuations run on the loop, so no locking is needed here.
			if err != nil {
				out.Reject(err)
				return
			}
			values[i] = v
			remaining--
			if remaining == 0 {
				out.Resolve(values)
			}
		})
	}
	return out
}
