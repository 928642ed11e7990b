package hydrate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/rx/pkg/component"
	"github.com/vango-dev/rx/pkg/dom"
	"github.com/vango-dev/rx/pkg/scheduler"
	"github.com/vango-dev/rx/pkg/state"
	"github.com/vango-dev/rx/pkg/ui"
)

func newManager(initial map[string]any, withTracker bool) *component.Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loop := scheduler.NewLoop(scheduler.LoopConfig{Logger: logger})
	store := state.New(state.Config{Initial: initial, Loop: loop, Logger: logger})
	var promises *scheduler.PromiseTracker
	if withTracker {
		promises = scheduler.NewPromiseTracker(loop)
	}
	m := component.New(component.Config{
		Store:    store,
		Adapter:  dom.NewDocument(),
		Promises: promises,
	})
	m.Register("Greeting", func(props ui.Props, ctx *component.Context) component.Result {
		f := ctx.Loop().NewFuture()
		greeting := "Hello " + ctx.Store().GetUntracked("user", "").(string)
		ctx.Loop().Defer(func() {
			go f.Resolve(greeting)
		})
		return component.Pending{Future: f}
	})
	m.Register("Never", func(props ui.Props, ctx *component.Context) component.Result {
		return component.Pending{Future: ctx.Loop().NewFuture()}
	})
	return m
}

func newHydrator(t *testing.T, cfg Config) *Hydrator {
	t.Helper()
	if cfg.Manager == nil {
		cfg.Manager = newManager(map[string]any{"user": "Ada", "title": "Home"}, true)
	}
	h, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return h
}

func greetingPage(h *Hydrator) *ui.Node {
	store := h.Manager().Store()
	return ui.El("main",
		ui.El("h1", ui.TextFn(func() any { return store.Get("title", "") })),
		ui.Component("Greeting", nil),
	)
}

func TestHydrateWaitsForAsyncWork(t *testing.T) {
	h := newHydrator(t, Config{Title: "Demo"})

	page, err := h.Hydrate(context.Background(), greetingPage(h))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !page.Complete {
		t.Error("expected a complete page")
	}
	if page.Tracked != 1 {
		t.Errorf("expected 1 tracked future, got %d", page.Tracked)
	}
	if page.Pending != 0 {
		t.Errorf("expected no pending futures, got %d", page.Pending)
	}
	if id := page.Body.Props["id"]; id != RootID {
		t.Errorf("expected body rooted at #%s, got %v", RootID, id)
	}

	var buf bytes.Buffer
	if err := h.Write(&buf, page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Demo</title>",
		`<div id="rx-root"><main><h1>Home</h1>Hello Ada</main></div>`,
		`<script type="application/json" id="rx-state">{"title":"Home","user":"Ada"}</script>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, html)
		}
	}
	if strings.Contains(html, "aria-busy") {
		t.Error("expected no placeholder in a complete page")
	}
}

func TestHydrateTimeoutRendersPlaceholder(t *testing.T) {
	h := newHydrator(t, Config{Timeout: 20 * time.Millisecond})

	page, err := h.Hydrate(context.Background(), ui.Component("Never", nil))
	if err != nil {
		t.Fatalf("expected a timeout to return a page, got %v", err)
	}
	if page.Complete {
		t.Error("expected an incomplete page")
	}
	if page.Pending != 1 {
		t.Errorf("expected 1 pending future, got %d", page.Pending)
	}

	var buf bytes.Buffer
	if err := h.WriteFragment(&buf, page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `aria-busy="true"`) {
		t.Errorf("expected a placeholder, got %s", buf.String())
	}
	if strings.Contains(buf.String(), "<!DOCTYPE") {
		t.Error("expected a fragment without a document")
	}
}

func TestHydrateCancelled(t *testing.T) {
	h := newHydrator(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Hydrate(ctx, ui.Text("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestHydrateCleansUp(t *testing.T) {
	h := newHydrator(t, Config{})
	store := h.Manager().Store()

	if _, err := h.Hydrate(context.Background(), greetingPage(h)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := store.Subscriptions(); n != 0 {
		t.Errorf("expected 0 subscriptions after the pass, got %d", n)
	}
	if n := h.Manager().Arena().Len(); n != 0 {
		t.Errorf("expected an empty arena, got %d units", n)
	}
}

func TestHydrateKeepMounted(t *testing.T) {
	h := newHydrator(t, Config{KeepMounted: true})
	store := h.Manager().Store()

	if _, err := h.Hydrate(context.Background(), greetingPage(h)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Subscriptions() == 0 {
		t.Error("expected the tree to stay subscribed")
	}
}

func TestHydrateDropsPrivateState(t *testing.T) {
	m := newManager(nil, true)
	m.Register("Counter", func(props ui.Props, ctx *component.Context) component.Result {
		count, _ := ctx.NewState("count", 3)
		return component.Reactive{Render: func() any { return ui.Textf("%v", count()) }}
	})
	h := newHydrator(t, Config{Manager: m, KeepMounted: true})

	page, err := h.Hydrate(context.Background(), ui.Component("Counter", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := page.State[component.LocalPrefix]; ok {
		t.Error("expected private state to be left out of the payload")
	}
	if !m.Store().Has(component.LocalPrefix) {
		t.Error("expected private state to remain in the live store")
	}
}

type foreignAdapter struct {
	*dom.Document
}

func TestNewRequiresDocumentAndTracker(t *testing.T) {
	store := state.New(state.Config{})

	m := component.New(component.Config{
		Store:    store,
		Adapter:  foreignAdapter{dom.NewDocument()},
		Promises: scheduler.NewPromiseTracker(store.Loop()),
	})
	if _, err := New(Config{Manager: m}); !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}

	m = component.New(component.Config{Store: store, Adapter: dom.NewDocument()})
	if _, err := New(Config{Manager: m}); !errors.Is(err, ErrNoTracker) {
		t.Errorf("expected ErrNoTracker, got %v", err)
	}
}

func TestRoutes(t *testing.T) {
	h := newHydrator(t, Config{Title: "Demo"})
	router := Routes(Static(h, func() *ui.Node { return greetingPage(h) }))

	t.Run("page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if got := rec.Header().Get(CompleteHeader); got != "true" {
			t.Errorf("expected %s true, got %q", CompleteHeader, got)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("expected text/html, got %q", ct)
		}
		if !strings.Contains(rec.Body.String(), "Hello Ada") {
			t.Errorf("expected hydrated content, got %s", rec.Body.String())
		}
	})

	t.Run("fragment", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fragment", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if strings.Contains(body, "<html") {
			t.Errorf("expected a fragment, got %s", body)
		}
		if !strings.Contains(body, `id="rx-state"`) {
			t.Errorf("expected a state payload, got %s", body)
		}
	})

	t.Run("page func error", func(t *testing.T) {
		failing := Routes(func(*http.Request) (*Hydrator, *ui.Node, error) {
			return nil, nil, errors.New("no session")
		})
		rec := httptest.NewRecorder()
		failing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
	})
}

func TestComponent(t *testing.T) {
	h := newHydrator(t, Config{})

	var buf bytes.Buffer
	if err := Component(h, greetingPage(h)).Render(context.Background(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Hello Ada") {
		t.Errorf("expected hydrated content, got %s", buf.String())
	}
}
