package state

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/rx/pkg/scheduler"
)

func TestBatchCoalescesWrites(t *testing.T) {
	s := newTestStore(nil)
	rec := &recorder{}
	s.Subscribe("x", rec.fn, false)

	s.ExecuteBatch(func() {
		s.Set("x", 1)
		s.Set("x", 2)
		s.Set("x", 3)
		if rec.count() != 0 {
			t.Errorf("expected no notification inside batch, got %d", rec.count())
		}
	})

	if rec.count() != 1 {
		t.Fatalf("expected 1 notification, got %d", rec.count())
	}
	if rec.last().Value != 3 {
		t.Errorf("expected final value 3, got %v", rec.last().Value)
	}
}

func TestBatchReadsSeeCommittedState(t *testing.T) {
	s := newTestStore(map[string]any{"x": 0})

	s.ExecuteBatch(func() {
		s.Set("x", 1)
		if got := s.Get("x", nil); got != 0 {
			t.Errorf("expected committed value 0 inside batch, got %v", got)
		}
	})

	if got := s.Get("x", nil); got != 1 {
		t.Errorf("expected 1 after commit, got %v", got)
	}
}

func TestBatchNotifiesAncestorOnce(t *testing.T) {
	s := newTestStore(nil)
	calls := 0
	var seen map[string]any
	s.Watch("user", NewListenerFunc(func(c Change) {
		calls++
		seen = Copy(c.Value).(map[string]any)
	}))

	s.ExecuteBatch(func() {
		s.Set("user.name", "Ada")
		s.Set("user.age", 36)
	})

	if calls != 1 {
		t.Errorf("expected 1 notification, got %d", calls)
	}
	want := map[string]any{"name": "Ada", "age": 36}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("subscriber saw intermediate state (-want +got):\n%s", diff)
	}
}

func TestBatchPreservesFirstWriteOrder(t *testing.T) {
	s := newTestStore(nil)
	s.ExecuteBatch(func() {
		s.Set("b", 1)
		s.Set("a", 1)
		s.Set("b", 2)

		var paths []string
		for _, e := range s.PendingWrites() {
			paths = append(paths, e.Path)
		}
		if diff := cmp.Diff([]string{"b", "a"}, paths); diff != "" {
			t.Errorf("queue order mismatch (-want +got):\n%s", diff)
		}
	})
	if s.PendingWrites() != nil {
		t.Error("expected no pending writes after commit")
	}
}

func TestBatchSkipsUnchanged(t *testing.T) {
	s := newTestStore(map[string]any{"x": 1})
	rec := &recorder{}
	s.Subscribe("x", rec.fn, false)

	s.ExecuteBatch(func() {
		s.Set("x", 5)
		s.Set("x", 1)
	})

	if rec.count() != 0 {
		t.Errorf("expected no notification for a net no-op batch, got %d", rec.count())
	}
}

func TestNestedBatchRunsInline(t *testing.T) {
	s := newTestStore(nil)
	rec := &recorder{}
	s.Subscribe("x", rec.fn, false)

	s.ExecuteBatch(func() {
		s.Set("x", 1)
		s.ExecuteBatch(func() {
			s.Set("x", 2)
		})
		if rec.count() != 0 {
			t.Errorf("expected inner batch not to commit, got %d notifications", rec.count())
		}
	})

	if rec.count() != 1 {
		t.Errorf("expected 1 notification, got %d", rec.count())
	}
}

func TestBatchCommitsOnPanic(t *testing.T) {
	s := newTestStore(nil)
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic to propagate")
			}
		}()
		s.ExecuteBatch(func() {
			s.Set("x", 1)
			panic("boom")
		})
	}()

	if got := s.Get("x", nil); got != 1 {
		t.Errorf("expected queued write to commit, got %v", got)
	}
	if s.Batching() {
		t.Error("expected batch to be closed")
	}
}

func TestBatchCommittedObserved(t *testing.T) {
	obs := &countingObserver{}
	s := New(Config{Observer: obs, Logger: newTestStore(nil).Logger()})
	s.ExecuteBatchNamed("checkout", func() {
		s.Set("a", 1)
		s.Set("b", 2)
	})

	if obs.batches != 1 {
		t.Errorf("expected 1 batch, got %d", obs.batches)
	}
	if obs.applied != 2 {
		t.Errorf("expected 2 applied writes, got %d", obs.applied)
	}
}

func TestAfterBatch(t *testing.T) {
	s := newTestStore(nil)
	var order []string
	s.Subscribe("x", func(Change) { order = append(order, "notify") }, false)

	s.ExecuteBatch(func() {
		s.Set("x", 1)
		s.AfterBatch(func() {
			order = append(order, "after")
			if got := s.Get("x", nil); got != 1 {
				t.Errorf("expected committed value 1, got %v", got)
			}
		})
		order = append(order, "body")
	})

	want := []string{"body", "notify", "after"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestAfterBatchWithoutBatchRunsNow(t *testing.T) {
	s := newTestStore(nil)
	ran := false
	s.AfterBatch(func() { ran = true })
	if !ran {
		t.Error("expected AfterBatch to run immediately")
	}
}

func TestExecuteBatchAsync(t *testing.T) {
	s := newTestStore(nil)
	loop := s.Loop()
	rec := &recorder{}
	s.Subscribe("x", rec.fn, false)

	pending := loop.NewFuture()
	out := s.ExecuteBatchAsync(func() *scheduler.Future {
		s.Set("x", 1)
		return pending
	})

	// Writes from elsewhere join the open batch.
	s.Set("x", 2)
	loop.Drain()
	if rec.count() != 0 {
		t.Fatalf("expected batch to stay open, got %d notifications", rec.count())
	}
	if !s.Batching() {
		t.Fatal("expected batch to be open")
	}

	pending.Resolve("done")
	loop.Drain()

	if rec.count() != 1 || rec.last().Value != 2 {
		t.Errorf("expected one notification with 2, got %v", rec.changes)
	}
	v, err := out.Result()
	if err != nil || v != "done" {
		t.Errorf("expected done, got %v, %v", v, err)
	}
}

func TestExecuteBatchAsyncRejected(t *testing.T) {
	s := newTestStore(nil)
	loop := s.Loop()
	boom := errors.New("boom")

	pending := loop.NewFuture()
	out := s.ExecuteBatchAsync(func() *scheduler.Future {
		s.Set("x", 1)
		return pending
	})
	pending.Reject(boom)
	loop.Drain()

	if got := s.Get("x", nil); got != 1 {
		t.Errorf("expected writes to commit on rejection, got %v", got)
	}
	if _, err := out.Result(); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestExecuteBatchAsyncNilFuture(t *testing.T) {
	s := newTestStore(nil)
	out := s.ExecuteBatchAsync(func() *scheduler.Future {
		s.Set("x", 1)
		return nil
	})

	if got := s.Get("x", nil); got != 1 {
		t.Errorf("expected immediate commit, got %v", got)
	}
	if !out.Settled() {
		t.Error("expected settled future")
	}
}
