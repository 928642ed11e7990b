// Package rx is a path-addressed, fine-grained reactive UI runtime.
//
// UIs are plain descriptions (ui.Node). Any property given as a function is
// reactive: it re-runs, and its result is re-applied, whenever state it read
// changes. State lives in a single tree addressed by dot paths:
//
//	rt := rx.New(rx.Config{InitialState: map[string]any{"count": 0}})
//	rt.Mount(nil, rx.El("p", rx.TextFn(func() any {
//	    return rt.GetState("count", 0)
//	})))
//	rt.SetState("count", 1) // the paragraph now reads "1"
//
// Everything reactive runs on one scheduler.Loop. Code on other goroutines
// hands work to the loop with Loop().Post, or settles futures.
package rx

import (
	"context"
	"log/slog"
	"sync"

	rxerrors "github.com/vango-dev/rx/internal/errors"
	"github.com/vango-dev/rx/pkg/binding"
	"github.com/vango-dev/rx/pkg/component"
	"github.com/vango-dev/rx/pkg/dom"
	"github.com/vango-dev/rx/pkg/hydrate"
	"github.com/vango-dev/rx/pkg/middleware"
	"github.com/vango-dev/rx/pkg/render"
	"github.com/vango-dev/rx/pkg/scheduler"
	"github.com/vango-dev/rx/pkg/state"
	"github.com/vango-dev/rx/pkg/telemetry"
	"github.com/vango-dev/rx/pkg/ui"
)

// =============================================================================
// Type aliases
// =============================================================================

type (
	Node        = ui.Node
	Props       = ui.Props
	Placeholder = ui.Placeholder
	Change      = state.Change
	Middleware  = state.Middleware
	Future      = scheduler.Future
	Handle      = component.Handle
	Context     = component.Context
	Result      = component.Result
	Func        = component.Func
	Page        = hydrate.Page
)

// Component results.
type (
	Static    = component.Static
	Fragment  = component.Fragment
	Lifecycle = component.Lifecycle
	Reactive  = component.Reactive
	Pending   = component.Pending
	Hooks     = component.Hooks
)

// Description builders (re-exported from pkg/ui).
var (
	El        = ui.El
	Text      = ui.Text
	Textf     = ui.Textf
	TextFn    = ui.TextFn
	Dynamic   = ui.Dynamic
	Component = ui.Component
	Class     = ui.Class
	ID        = ui.ID
	Prop      = ui.Prop
	Style     = ui.Style
)

// =============================================================================
// Runtime
// =============================================================================

// Runtime wires a store, a component manager and a promise tracker onto one
// loop.
type Runtime struct {
	config   Config
	logger   *slog.Logger
	loop     *scheduler.Loop
	store    *state.Store
	manager  *component.Manager
	promises *scheduler.PromiseTracker
	adapter  dom.Adapter

	hydrateOnce sync.Once
	hydrator    *hydrate.Hydrator
	hydrateErr  error
}

// New creates a Runtime.
func New(cfg Config) *Runtime {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loop := cfg.Loop
	if loop == nil {
		loop = scheduler.NewLoop(scheduler.LoopConfig{Logger: logger})
	}
	adapter := cfg.Adapter
	if adapter == nil {
		adapter = dom.NewDocument()
	}

	var (
		stateObservers   state.MultiObserver
		bindingObservers binding.MultiObserver
		mws              []state.Middleware
	)
	if cfg.DevMode {
		mws = append(mws, middleware.Logging(slog.LevelDebug))
	}
	if cfg.Metrics != nil {
		stateObservers = append(stateObservers, cfg.Metrics)
		bindingObservers = append(bindingObservers, cfg.Metrics)
	}
	if cfg.Tracer != nil {
		spans := telemetry.NewSpans(cfg.Tracer)
		stateObservers = append(stateObservers, spans)
		bindingObservers = append(bindingObservers, spans)
		mws = append(mws, middleware.Tracing(middleware.WithTracer(cfg.Tracer)))
	}
	mws = append(mws, cfg.Middleware...)

	store := state.New(state.Config{
		Initial:    cfg.InitialState,
		Middleware: mws,
		Loop:       loop,
		Logger:     logger,
		Observer:   stateObservers,
	})
	promises := scheduler.NewPromiseTracker(loop)

	var observer binding.Observer
	if len(bindingObservers) > 0 {
		observer = bindingObservers
	}
	manager := component.New(component.Config{
		Store:       store,
		Adapter:     adapter,
		Logger:      logger,
		Promises:    promises,
		Budget:      binding.NewBudget(loop, cfg.budget()),
		Observer:    observer,
		Placeholder: cfg.Placeholder,
	})

	return &Runtime{
		config:   cfg,
		logger:   logger,
		loop:     loop,
		store:    store,
		manager:  manager,
		promises: promises,
		adapter:  adapter,
	}
}

// Loop returns the runtime's loop.
func (r *Runtime) Loop() *scheduler.Loop { return r.loop }

// Store returns the state store.
func (r *Runtime) Store() *state.Store { return r.store }

// Manager returns the component manager.
func (r *Runtime) Manager() *component.Manager { return r.manager }

// Promises returns the promise tracker.
func (r *Runtime) Promises() *scheduler.PromiseTracker { return r.promises }

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *slog.Logger { return r.logger }

// Document returns the in-memory document, or nil when a custom adapter
// is configured.
func (r *Runtime) Document() *dom.Document {
	doc, _ := r.adapter.(*dom.Document)
	return doc
}

// =============================================================================
// State
// =============================================================================

// GetState returns the value at path, or def. Inside a reactive
// evaluation the read is tracked.
func (r *Runtime) GetState(path string, def any) any {
	return r.store.Get(path, def)
}

// GetStateUntracked is GetState without dependency tracking.
func (r *Runtime) GetStateUntracked(path string, def any) any {
	return r.store.GetUntracked(path, def)
}

// SetState writes value at path through the middleware pipeline.
func (r *Runtime) SetState(path string, value any) {
	r.store.Set(path, value)
}

// Subscribe registers fn on path and returns an idempotent unsubscribe
// function. Hierarchical subscriptions also fire for writes below path and
// for writes to its ancestors.
func (r *Runtime) Subscribe(path string, fn func(Change), hierarchical bool) func() {
	return r.store.Subscribe(path, fn, hierarchical)
}

// ExecuteBatch runs fn with writes buffered and notifies once at the end.
func (r *Runtime) ExecuteBatch(fn func()) {
	r.store.ExecuteBatch(fn)
}

// ExecuteBatchAsync keeps a batch open until the future returned by fn
// settles.
func (r *Runtime) ExecuteBatchAsync(fn func() *Future) *Future {
	return r.store.ExecuteBatchAsync(fn)
}

// =============================================================================
// Components
// =============================================================================

// Register makes fn available to Component nodes under name.
func (r *Runtime) Register(name string, fn Func) {
	r.manager.Register(name, fn)
}

// CreateComponent instantiates a registered component without attaching
// it. Use Attach to insert its nodes.
func (r *Runtime) CreateComponent(name string, props Props) Handle {
	return r.manager.Create(name, props)
}

// Attach inserts the nodes of h under parent.
func (r *Runtime) Attach(h Handle, parent dom.Node) {
	r.manager.Attach(h, parent)
}

// Update passes new props to the component created as h.
func (r *Runtime) Update(h Handle, props Props) bool {
	return r.manager.Update(h, props)
}

// Mount builds n and appends it to parent. A nil parent mounts into the
// document body when the runtime renders into a *dom.Document.
func (r *Runtime) Mount(parent dom.Node, n *Node) Handle {
	if parent == nil {
		doc := r.Document()
		if doc == nil {
			r.logger.Error("mount without a parent",
				slog.String("code", rxerrors.CodeUsage),
				slog.Any("error", rxerrors.New(rxerrors.CodeUsage).
					WithDetail("Mount needs a parent node when a custom adapter is configured")))
			return 0
		}
		parent = doc.Body
	}
	return r.manager.Mount(parent, n)
}

// Cleanup releases everything created for h. It is idempotent.
func (r *Runtime) Cleanup(h Handle) {
	r.manager.Cleanup(h)
}

// =============================================================================
// Hydration
// =============================================================================

// Hydrator returns a hydrator bound to the runtime's manager.
func (r *Runtime) Hydrator(cfg hydrate.Config) (*hydrate.Hydrator, error) {
	cfg.Manager = r.manager
	if cfg.Logger == nil {
		cfg.Logger = r.logger
	}
	if cfg.Renderer == nil && r.config.DevMode {
		cfg.Renderer = render.NewRenderer(render.RendererConfig{Pretty: true})
	}
	return hydrate.New(cfg)
}

// Hydrate mounts root, waits until every tracked future has settled and
// returns the rendered page. The calling goroutine drives the loop; it
// must not be driven elsewhere meanwhile.
func (r *Runtime) Hydrate(ctx context.Context, root *Node) (*Page, error) {
	r.hydrateOnce.Do(func() {
		r.hydrator, r.hydrateErr = r.Hydrator(hydrate.Config{})
	})
	if r.hydrateErr != nil {
		return nil, r.hydrateErr
	}
	return r.hydrator.Hydrate(ctx, root)
}
