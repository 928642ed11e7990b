package devtools

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/rx/pkg/scheduler"
	"github.com/vango-dev/rx/pkg/state"
)

type harness struct {
	store *state.Store
	insp  *Inspector
	url   string
}

func newHarness(t *testing.T, allowWrites bool) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loop := scheduler.NewLoop(scheduler.LoopConfig{Logger: logger})
	store := state.New(state.Config{
		Initial: map[string]any{"user": map[string]any{"name": "Ada"}, "count": 1},
		Loop:    loop,
		Logger:  logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	insp := New(Config{Store: store, AllowWrites: allowWrites})
	srv := httptest.NewServer(insp)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return &harness{
		store: store,
		insp:  insp,
		url:   "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// onLoop runs fn on the store's loop and waits for it.
func (h *harness) onLoop(t *testing.T, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.insp.onLoop(ctx, fn); err != nil {
		t.Fatalf("loop call failed: %v", err)
	}
}

func request(t *testing.T, conn *websocket.Conn, req Request) {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m Message
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return m
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t, false)
	conn := h.dial(t)

	request(t, conn, Request{Op: "snapshot"})
	m := receive(t, conn)

	if m.Type != TypeSnapshot {
		t.Fatalf("expected %s, got %s", TypeSnapshot, m.Type)
	}
	want := map[string]any{"user": map[string]any{"name": "Ada"}, "count": float64(1)}
	if diff := cmp.Diff(want, m.State); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchStreamsChanges(t *testing.T) {
	h := newHarness(t, false)
	conn := h.dial(t)

	request(t, conn, Request{Op: "watch", Path: "user"})
	m := receive(t, conn)
	if m.Type != TypeWatching || m.Path != "user" {
		t.Fatalf("expected watching user, got %+v", m)
	}
	if diff := cmp.Diff(map[string]any{"name": "Ada"}, m.Value); diff != "" {
		t.Errorf("initial value mismatch (-want +got):\n%s", diff)
	}

	h.onLoop(t, func() { h.store.Set("user.name", "Grace") })
	m = receive(t, conn)
	if m.Type != TypeChange {
		t.Fatalf("expected change, got %+v", m)
	}
	if m.Path != "user" || m.Changed != "user.name" {
		t.Errorf("expected user/user.name, got %s/%s", m.Path, m.Changed)
	}
	if diff := cmp.Diff(map[string]any{"name": "Grace"}, m.Value); diff != "" {
		t.Errorf("change value mismatch (-want +got):\n%s", diff)
	}

	request(t, conn, Request{Op: "unwatch", Path: "user"})
	if m := receive(t, conn); m.Type != TypeUnwatched {
		t.Fatalf("expected unwatched, got %+v", m)
	}
	var subs int
	h.onLoop(t, func() { subs = h.store.Subscriptions() })
	if subs != 0 {
		t.Errorf("expected 0 subscriptions after unwatch, got %d", subs)
	}
}

func TestDisconnectReleasesSubscriptions(t *testing.T) {
	h := newHarness(t, false)
	conn := h.dial(t)

	request(t, conn, Request{Op: "watch", Path: "count"})
	receive(t, conn)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		var subs int
		h.onLoop(t, func() { subs = h.store.Subscriptions() })
		if subs == 0 && h.insp.Clients() == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected subscriptions to be released, still %d (clients %d)", subs, h.insp.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWrites(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newHarness(t, false)
		conn := h.dial(t)

		request(t, conn, Request{Op: "set", Path: "count", Value: 5})
		m := receive(t, conn)
		if m.Type != TypeError {
			t.Fatalf("expected error, got %+v", m)
		}
		var got any
		h.onLoop(t, func() { got = h.store.GetUntracked("count", nil) })
		if got != 1 {
			t.Errorf("expected count to stay 1, got %v", got)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		h := newHarness(t, true)
		conn := h.dial(t)

		request(t, conn, Request{Op: "set", Path: "count", Value: 5})
		if m := receive(t, conn); m.Type != TypeAck {
			t.Fatalf("expected ack, got %+v", m)
		}
		var got any
		h.onLoop(t, func() { got = h.store.GetUntracked("count", nil) })
		if got != 5 {
			t.Errorf("expected count 5 as int, got %#v", got)
		}

		request(t, conn, Request{Op: "delete", Path: "user"})
		if m := receive(t, conn); m.Type != TypeAck {
			t.Fatalf("expected ack, got %+v", m)
		}
		var has bool
		h.onLoop(t, func() { has = h.store.Has("user") })
		if has {
			t.Error("expected user to be deleted")
		}
	})
}

func TestBadRequests(t *testing.T) {
	h := newHarness(t, true)
	conn := h.dial(t)

	tests := []struct {
		name string
		send func()
	}{
		{"malformed", func() { conn.WriteMessage(websocket.TextMessage, []byte("{")) }},
		{"unknown op", func() { request(t, conn, Request{Op: "explode"}) }},
		{"invalid watch path", func() { request(t, conn, Request{Op: "watch", Path: "a..b"}) }},
		{"invalid set path", func() { request(t, conn, Request{Op: "set", Path: ".x", Value: 1}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.send()
			if m := receive(t, conn); m.Type != TypeError {
				t.Errorf("expected error, got %+v", m)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got := normalize(map[string]any{
		"n":    float64(3),
		"f":    1.5,
		"list": []any{float64(1), "x"},
	})
	want := map[string]any{"n": 3, "f": 1.5, "list": []any{1, "x"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("normalize mismatch (-want +got):\n%s", diff)
	}
}
