package hydrate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/rx/pkg/component"
	"github.com/vango-dev/rx/pkg/dom"
	"github.com/vango-dev/rx/pkg/render"
	"github.com/vango-dev/rx/pkg/ui"
)

// RootID is the id of the element every hydrated tree is mounted into.
const RootID = "rx-root"

// DefaultTimeout bounds a pass when Config.Timeout is zero.
const DefaultTimeout = 5 * time.Second

var (
	// ErrNoDocument is returned when the manager does not render into a
	// *dom.Document.
	ErrNoDocument = errors.New("hydrate: manager adapter is not a *dom.Document")

	// ErrNoTracker is returned when the manager has no PromiseTracker.
	ErrNoTracker = errors.New("hydrate: manager has no promise tracker")
)

// Config configures a Hydrator.
type Config struct {
	// Manager mounts the tree. Its adapter must be a *dom.Document and it
	// must have a PromiseTracker. Required.
	Manager *component.Manager

	// Renderer serializes pages. Defaults to a compact renderer.
	Renderer *render.Renderer

	// Logger defaults to the manager's store logger.
	Logger *slog.Logger

	// Timeout bounds how long a pass waits for quiescence.
	// Zero means DefaultTimeout.
	Timeout time.Duration

	// KeepMounted leaves the tree mounted after a pass instead of
	// cleaning it up.
	KeepMounted bool

	// Page head.
	Title   string
	Lang    string
	Meta    []render.MetaTag
	Links   []render.LinkTag
	Scripts []render.ScriptTag
	Styles  []string
}

// Page is the result of a hydration pass.
type Page struct {
	// Body is the static description of the mounted tree, rooted at the
	// #rx-root element.
	Body *ui.Node

	// State is a deep copy of the state tree, without component-private
	// state.
	State map[string]any

	// Complete is false when the pass timed out with futures pending.
	Complete bool

	// Pending is the number of tracked futures still outstanding.
	Pending int

	// Tracked is the number of futures tracked during the pass.
	Tracked int

	Elapsed time.Duration
}

// Hydrator runs hydration passes.
type Hydrator struct {
	mu sync.Mutex

	manager  *component.Manager
	doc      *dom.Document
	renderer *render.Renderer
	logger   *slog.Logger
	config   Config
}

// New creates a Hydrator.
func New(cfg Config) (*Hydrator, error) {
	doc, ok := cfg.Manager.Adapter().(*dom.Document)
	if !ok {
		return nil, ErrNoDocument
	}
	if cfg.Manager.Promises() == nil {
		return nil, ErrNoTracker
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.NewRenderer(render.RendererConfig{})
	}
	if cfg.Logger == nil {
		cfg.Logger = cfg.Manager.Store().Logger()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Hydrator{
		manager:  cfg.Manager,
		doc:      doc,
		renderer: cfg.Renderer,
		logger:   cfg.Logger,
		config:   cfg,
	}, nil
}

// Manager returns the component manager.
func (h *Hydrator) Manager() *component.Manager {
	return h.manager
}

// Hydrate mounts root, waits until the session is quiescent and returns
// the rendered page. The calling goroutine drives the loop for the whole
// pass.
//
// Hitting the configured timeout is not an error: the page is returned with
// Complete set to false and placeholders where futures are still pending.
// Cancellation of ctx itself is returned as an error.
func (h *Hydrator) Hydrate(ctx context.Context, root *ui.Node) (*Page, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	promises := h.manager.Promises()
	promises.Begin()
	defer promises.End()

	host := h.doc.CreateElement("div")
	h.doc.SetAttr(host, "id", RootID)
	handle := h.manager.Mount(host, root)
	if !h.config.KeepMounted {
		defer func() {
			h.manager.Cleanup(handle)
			h.manager.Store().Loop().Drain()
		}()
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()
	err := promises.Wait(waitCtx)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	page := &Page{
		Body:     dom.Snapshot(host.(*dom.Element)),
		State:    h.manager.Store().Snapshot(),
		Complete: err == nil,
		Pending:  promises.Pending(),
		Tracked:  promises.Total(),
		Elapsed:  time.Since(start),
	}
	delete(page.State, component.LocalPrefix)

	if page.Complete {
		h.logger.Debug("hydrated",
			"tracked", page.Tracked,
			"elapsed", page.Elapsed)
	} else {
		h.logger.Warn("hydration timed out",
			"pending", page.Pending,
			"tracked", page.Tracked,
			"timeout", h.config.Timeout)
	}
	return page, nil
}

// Write renders page as a complete HTML document.
func (h *Hydrator) Write(w io.Writer, page *Page) error {
	return h.renderer.RenderPage(w, render.PageData{
		Body:    page.Body,
		State:   page.State,
		Title:   h.config.Title,
		Lang:    h.config.Lang,
		Meta:    h.config.Meta,
		Links:   h.config.Links,
		Scripts: h.config.Scripts,
		Styles:  h.config.Styles,
	})
}

// WriteFragment renders the page body followed by the state payload,
// without the surrounding document.
func (h *Hydrator) WriteFragment(w io.Writer, page *Page) error {
	if err := h.renderer.RenderToWriter(w, page.Body); err != nil {
		return err
	}
	return h.renderer.RenderState(w, page.State)
}
