package state

import (
	"log/slog"
	"time"

	"github.com/vango-dev/rx/pkg/scheduler"
)

// BatchEntry is one queued write.
type BatchEntry struct {
	Path   string
	Value  any
	Meta   any
	Time   time.Time
	Delete bool
}

// batchQueue holds the writes of an open batch, deduplicated by path.
// A later write to the same path replaces the earlier one but keeps its
// position, so commit order follows first-write order.
type batchQueue struct {
	entries []BatchEntry
	index   map[string]int
	started time.Time
}

func newBatchQueue() *batchQueue {
	return &batchQueue{
		index:   make(map[string]int),
		started: time.Now(),
	}
}

func (q *batchQueue) enqueue(path string, value, meta any, del bool) {
	e := BatchEntry{Path: path, Value: value, Meta: meta, Time: time.Now(), Delete: del}
	if i, ok := q.index[path]; ok {
		q.entries[i] = e
		return
	}
	q.index[path] = len(q.entries)
	q.entries = append(q.entries, e)
}

// Batching reports whether a batch is open.
func (s *Store) Batching() bool {
	return s.batch != nil
}

// PendingWrites returns a copy of the writes queued in the open batch.
func (s *Store) PendingWrites() []BatchEntry {
	if s.batch == nil {
		return nil
	}
	out := make([]BatchEntry, len(s.batch.entries))
	copy(out, s.batch.entries)
	return out
}

// ExecuteBatch runs fn with writes buffered, then commits them and notifies
// every affected subscriber once.
//
// Calls made while a batch is already open run fn inline as part of the
// open batch. The batch commits even if fn panics; the panic then continues.
func (s *Store) ExecuteBatch(fn func()) {
	if s.batch != nil {
		fn()
		return
	}
	q := newBatchQueue()
	s.batch = q
	defer s.commitBatch(q)
	fn()
}

// ExecuteBatchNamed is ExecuteBatch with the batch boundaries logged at
// debug level under name.
func (s *Store) ExecuteBatchNamed(name string, fn func()) {
	s.logger.Debug("state batch start", slog.String("tx", name))
	defer s.logger.Debug("state batch end", slog.String("tx", name))
	s.ExecuteBatch(fn)
}

// ExecuteBatchAsync opens a batch that stays open until the future returned
// by fn settles. The returned future settles with the same outcome after
// the batch has committed. A nil future commits immediately.
//
// Writes from anywhere on the loop are queued while the batch is open.
func (s *Store) ExecuteBatchAsync(fn func() *scheduler.Future) *scheduler.Future {
	if s.batch != nil {
		if f := fn(); f != nil {
			return f
		}
		return s.loop.Resolved(nil)
	}

	q := newBatchQueue()
	s.batch = q

	var f *scheduler.Future
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.commitBatch(q)
				panic(r)
			}
		}()
		f = fn()
	}()

	out := s.loop.NewFuture()
	if f == nil {
		s.commitBatch(q)
		out.Resolve(nil)
		return out
	}
	f.Then(func(v any, err error) {
		s.commitBatch(q)
		if err != nil {
			out.Reject(err)
			return
		}
		out.Resolve(v)
	})
	return out
}

// AfterBatch runs fn once the open batch has committed and notified,
// or immediately if no batch is open.
func (s *Store) AfterBatch(fn func()) {
	if s.batch == nil {
		fn()
		return
	}
	s.afterBatch = append(s.afterBatch, fn)
}

// commitBatch applies q's writes and notifies. A queue discarded by Reset
// is ignored.
func (s *Store) commitBatch(q *batchQueue) {
	if s.batch != q {
		if s.batch == nil {
			s.flushAfterBatch()
		}
		return
	}
	s.batch = nil

	changed := make([]string, 0, len(q.entries))
	for _, e := range q.entries {
		if s.apply(e.Path, e.Value, e.Meta, e.Delete) {
			changed = append(changed, e.Path)
		}
	}
	s.notify(changed)
	s.observer.BatchCommitted(len(q.entries), len(changed), time.Since(q.started))
	s.flushAfterBatch()
}

func (s *Store) flushAfterBatch() {
	for len(s.afterBatch) > 0 && s.batch == nil {
		fns := s.afterBatch
		s.afterBatch = nil
		for _, fn := range fns {
			fn()
		}
	}
}
