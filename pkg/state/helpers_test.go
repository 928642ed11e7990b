package state

import (
	"io"
	"log/slog"
	"time"
)

func newTestStore(initial map[string]any) *Store {
	return New(Config{
		Initial: initial,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// recorder is an external subscriber that keeps every change it saw.
type recorder struct {
	changes []Change
}

func (r *recorder) fn(c Change) {
	r.changes = append(r.changes, c)
}

func (r *recorder) count() int {
	return len(r.changes)
}

func (r *recorder) last() Change {
	if len(r.changes) == 0 {
		return Change{}
	}
	return r.changes[len(r.changes)-1]
}

// countingObserver counts store events.
type countingObserver struct {
	NopObserver
	applied  int
	skipped  int
	dropped  []error
	mwFailed int
	subFail  int
	batches  int
}

func (o *countingObserver) WriteApplied(string)                    { o.applied++ }
func (o *countingObserver) WriteSkipped(string)                    { o.skipped++ }
func (o *countingObserver) WriteDropped(_ string, err error)       { o.dropped = append(o.dropped, err) }
func (o *countingObserver) MiddlewareFailed(string)                { o.mwFailed++ }
func (o *countingObserver) SubscriberFailed(string)                { o.subFail++ }
func (o *countingObserver) BatchCommitted(int, int, time.Duration) { o.batches++ }
