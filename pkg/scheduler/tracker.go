package scheduler

import (
	"context"
	"sync"
)

// PromiseTracker counts outstanding futures during a session so callers can
// tell when asynchronous rendering has gone quiet.
//
// Track is a no-op outside Begin/End. Quiescent is true when nothing tracked
// is pending and the loop has no queued work.
type PromiseTracker struct {
	loop *Loop

	mu       sync.Mutex
	active   bool
	session  uint64 // bumped by Begin; settlements from older sessions are ignored
	pending  int
	total    int
	waiters  []*Future
	checking bool
}

// NewPromiseTracker creates a tracker bound to loop.
func NewPromiseTracker(loop *Loop) *PromiseTracker {
	return &PromiseTracker{loop: loop}
}

// Begin starts a tracking session and resets the counters.
func (t *PromiseTracker) Begin() {
	t.mu.Lock()
	t.active = true
	t.session++
	t.pending = 0
	t.total = 0
	t.mu.Unlock()
}

// End stops the session. Futures still pending are no longer counted
// and idle waiters are released.
func (t *PromiseTracker) End() {
	t.mu.Lock()
	t.active = false
	t.pending = 0
	waiters := t.waiters
	t.waiters = nil
	t.mu.Unlock()

	for _, w := range waiters {
		w.Resolve(nil)
	}
}

// Active reports whether a session is open.
func (t *PromiseTracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Track counts f until it settles. Settled futures are ignored, and so is
// a settlement that arrives after the session that tracked f has ended.
func (t *PromiseTracker) Track(f *Future) {
	if t == nil || f == nil || f.Settled() {
		return
	}
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	t.pending++
	t.total++
	session := t.session
	t.mu.Unlock()

	f.Then(func(any, error) {
		t.mu.Lock()
		if session != t.session || !t.active {
			t.mu.Unlock()
			return
		}
		if t.pending > 0 {
			t.pending--
		}
		done := t.pending == 0
		t.mu.Unlock()
		if done {
			// Settlement continuations may schedule more async work;
			// check again once they have had a chance to run.
			t.scheduleCheck()
		}
	})
}

// Pending returns the number of tracked futures still outstanding.
func (t *PromiseTracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Total returns the number of futures tracked in the current session.
func (t *PromiseTracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Quiescent reports whether nothing tracked is pending and the loop is idle.
// Must be called from the loop goroutine.
func (t *PromiseTracker) Quiescent() bool {
	return t.Pending() == 0 && t.loop.Idle()
}

// Idle returns a future fulfilled once the session becomes quiescent.
func (t *PromiseTracker) Idle() *Future {
	f := t.loop.NewFuture()
	t.mu.Lock()
	t.waiters = append(t.waiters, f)
	t.mu.Unlock()
	t.scheduleCheck()
	return f
}

// scheduleCheck queues at most one idle check at a time.
func (t *PromiseTracker) scheduleCheck() {
	t.mu.Lock()
	if t.checking || len(t.waiters) == 0 {
		t.mu.Unlock()
		return
	}
	t.checking = true
	t.mu.Unlock()
	t.loop.Defer(t.checkIdle)
}

func (t *PromiseTracker) checkIdle() {
	t.mu.Lock()
	t.checking = false
	pending := t.pending
	t.mu.Unlock()

	if pending > 0 {
		return
	}
	if !t.loop.Idle() {
		t.scheduleCheck()
		return
	}
	t.mu.Lock()
	waiters := t.waiters
	t.waiters = nil
	t.mu.Unlock()
	for _, w := range waiters {
		w.Resolve(nil)
	}
}

// Wait drives the loop on the calling goroutine until the session is
// quiescent or ctx is done. Used by hydration, which owns the loop while
// rendering a page.
func (t *PromiseTracker) Wait(ctx context.Context) error {
	return t.loop.RunUntil(ctx, t.Quiescent)
}
