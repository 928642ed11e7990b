package component

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strconv"

	rxerrors "github.com/vango-dev/rx/internal/errors"
	"github.com/vango-dev/rx/pkg/binding"
	"github.com/vango-dev/rx/pkg/dom"
	"github.com/vango-dev/rx/pkg/scheduler"
	"github.com/vango-dev/rx/pkg/state"
	"github.com/vango-dev/rx/pkg/ui"
)

// Func is a component function.
type Func func(props ui.Props, ctx *Context) Result

// Config configures a Manager.
type Config struct {
	// Store is the state store. Required.
	Store *state.Store

	// Adapter renders nodes. Required.
	Adapter dom.Adapter

	// Logger defaults to the store's logger.
	Logger *slog.Logger

	// Promises, if set, tracks every async value for quiescence detection.
	Promises *scheduler.PromiseTracker

	// Budget limits binding re-runs per tick.
	Budget *binding.Budget

	// Observer receives binding events.
	Observer binding.Observer

	// Placeholder is used when no unit in the ancestry configures one.
	// Defaults to ui.DefaultPlaceholder.
	Placeholder *ui.Placeholder
}

// Manager creates, updates and cleans up component instances and the
// reactive units of mounted descriptions.
//
// A Manager is not safe for concurrent use; it runs on the store's loop.
type Manager struct {
	store    *state.Store
	adapter  dom.Adapter
	logger   *slog.Logger
	promises *scheduler.PromiseTracker
	budget   *binding.Budget
	observer binding.Observer

	placeholder *ui.Placeholder
	registry    map[string]Func
	arena       *Arena
}

// New creates a Manager.
func New(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = cfg.Store.Logger()
	}
	placeholder := cfg.Placeholder
	if placeholder == nil {
		placeholder = ui.DefaultPlaceholder
	}
	return &Manager{
		store:       cfg.Store,
		adapter:     cfg.Adapter,
		logger:      logger,
		promises:    cfg.Promises,
		budget:      cfg.Budget,
		observer:    cfg.Observer,
		placeholder: placeholder,
		registry:    make(map[string]Func),
		arena:       NewArena(),
	}
}

// Register makes fn available under name, replacing any previous function.
func (m *Manager) Register(name string, fn Func) {
	m.registry[name] = fn
}

// Registered returns the sorted names of all registered components.
func (m *Manager) Registered() []string {
	names := make([]string, 0, len(m.registry))
	for name := range m.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Arena returns the unit arena.
func (m *Manager) Arena() *Arena {
	return m.arena
}

// Adapter returns the rendering adapter.
func (m *Manager) Adapter() dom.Adapter {
	return m.adapter
}

// Store returns the state store.
func (m *Manager) Store() *state.Store {
	return m.store
}

// Promises returns the promise tracker, or nil if none was configured.
func (m *Manager) Promises() *scheduler.PromiseTracker {
	return m.promises
}

// =============================================================================
// Public operations
// =============================================================================

// Mount builds n into a new root unit and appends its nodes to parent.
func (m *Manager) Mount(parent dom.Node, n *ui.Node) Handle {
	root := m.arena.alloc(0)
	root.nodes = m.buildSafe(root, n)
	for _, node := range root.nodes {
		m.adapter.AppendChild(parent, node)
	}
	return root.handle
}

// Create creates a detached component instance and returns its handle.
// Attach inserts its nodes.
func (m *Manager) Create(name string, props ui.Props) Handle {
	cu := m.arena.alloc(0)
	m.component(cu, name, props)
	return cu.handle
}

// Attach appends the nodes of h to parent.
func (m *Manager) Attach(h Handle, parent dom.Node) {
	for _, n := range m.Nodes(h) {
		m.adapter.AppendChild(parent, n)
	}
}

// Nodes returns the current top-level nodes of h.
func (m *Manager) Nodes(h Handle) []dom.Node {
	u := m.arena.get(h)
	if u == nil {
		return nil
	}
	if u.slot != nil {
		return u.slot.all()
	}
	out := make([]dom.Node, len(u.nodes))
	copy(out, u.nodes)
	return out
}

// Instance returns the component instance of h, if h is a component.
func (m *Manager) Instance(h Handle) (*Instance, bool) {
	u := m.arena.get(h)
	if u == nil || u.inst == nil {
		return nil, false
	}
	return u.inst, true
}

// Update replaces the props of component h. Nothing happens when the new
// props are deep-equal to the current ones; otherwise OnUpdate fires for
// Lifecycle components and Reactive components re-render. Reports whether
// the props changed.
func (m *Manager) Update(h Handle, props ui.Props) bool {
	u := m.arena.get(h)
	if u == nil || u.inst == nil || u.disposed {
		return false
	}
	inst := u.inst
	if state.Equal(inst.props, props) {
		return false
	}
	old := inst.props
	inst.props = props
	if inst.mounted {
		inst.phase = PhaseUpdated
	}

	switch {
	case inst.kind == KindLifecycle && inst.hooks.OnUpdate != nil:
		m.hook(inst, "onUpdate", func() { inst.hooks.OnUpdate(old, props) })
	case inst.kind == KindReactive && inst.reactive != nil:
		inst.reactive()
	}
	return true
}

// SetPlaceholder configures the placeholder shown by async work in h and
// its descendants, unless a nearer unit configures its own.
func (m *Manager) SetPlaceholder(h Handle, p *ui.Placeholder) {
	if u := m.arena.get(h); u != nil {
		u.placeholder = p
	}
}

// Cleanup tears down h and its descendants. OnUnmount hooks, binding
// disposal, cleanup functions and private state deletion happen for every
// unit of the subtree before any node is detached. Cleanup is idempotent.
func (m *Manager) Cleanup(h Handle) {
	u := m.arena.get(h)
	if u == nil || u.disposed {
		return
	}
	m.dispose(u)
}

// =============================================================================
// Building
// =============================================================================

// buildSafe is build with panics turned into an inline error node.
func (m *Manager) buildSafe(u *unit, n *ui.Node) (nodes []dom.Node) {
	defer func() {
		if r := recover(); r != nil {
			err := rxerrors.FromPanic(r, rxerrors.CodeComponentRender)
			m.logger.Error("render failed",
				slog.String("code", rxerrors.CodeComponentRender),
				slog.Any("error", err))
			nodes = m.build(u, ui.ErrorNode(err))
		}
	}()
	return m.build(u, n)
}

// build renders n into nodes owned by u.
func (m *Manager) build(u *unit, n *ui.Node) []dom.Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ui.KindText:
		return []dom.Node{m.buildText(u, n)}
	case ui.KindElement:
		return []dom.Node{m.buildElement(u, n)}
	case ui.KindFragment:
		var out []dom.Node
		for _, c := range n.Children {
			out = append(out, m.build(u, c)...)
		}
		return out
	case ui.KindDynamic:
		du := m.arena.alloc(u.handle)
		du.placeholder = n.Placeholder
		return m.dynamic(du, n.Fn)
	case ui.KindComponent:
		cu := m.arena.alloc(u.handle)
		cu.placeholder = n.Placeholder
		return m.component(cu, n.Name, n.Props)
	default:
		panic(fmt.Sprintf("unknown node kind %s", n.Kind))
	}
}

func (m *Manager) buildText(u *unit, n *ui.Node) dom.Node {
	if n.Fn == nil {
		return m.adapter.CreateText(n.Text)
	}
	t := m.adapter.CreateText("")
	m.bind(u, "text", n.Fn,
		func(v any) { m.adapter.SetText(t, textOf(v)) },
		func() { m.adapter.SetText(t, m.placeholderFor(u).Text) },
		func(err error) { m.adapter.SetText(t, asyncError(err).FormatCompact()) },
	)
	return t
}

func (m *Manager) buildElement(u *unit, n *ui.Node) dom.Node {
	owner := u
	if n.Placeholder != nil {
		owner = m.arena.alloc(u.handle)
		owner.placeholder = n.Placeholder
	}

	e := m.adapter.CreateElement(n.Tag)
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := n.Props[key]
		if style, ok := value.(map[string]any); ok && key == "style" {
			m.applyStyle(owner, e, style)
			continue
		}
		m.applyAttr(owner, e, key, value)
	}

	for _, c := range n.Children {
		for _, child := range m.build(owner, c) {
			m.adapter.AppendChild(e, child)
		}
	}
	if owner != u {
		owner.nodes = []dom.Node{e}
	}
	return e
}

func (m *Manager) applyAttr(u *unit, e dom.Node, key string, value any) {
	fn, ok := ui.Reactive(value)
	if !ok {
		if isFunc(value) {
			m.logger.Debug("ignoring non-reactive function property",
				slog.String("prop", key))
			return
		}
		m.adapter.SetAttr(e, key, value)
		return
	}
	m.bind(u, "attr:"+key, fn,
		func(v any) { m.adapter.SetAttr(e, key, v) },
		nil,
		func(err error) { m.adapter.SetAttr(e, "data-rx-error", asyncError(err).FormatCompact()) },
	)
}

func (m *Manager) applyStyle(u *unit, e dom.Node, style map[string]any) {
	names := make([]string, 0, len(style))
	for name := range style {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := style[name]
		fn, ok := ui.Reactive(value)
		if !ok {
			m.adapter.SetStyle(e, name, value)
			continue
		}
		m.bind(u, "style:"+name, fn,
			func(v any) { m.adapter.SetStyle(e, name, v) },
			nil, nil,
		)
	}
}

// dynamic renders a reactive region into du's slot.
func (m *Manager) dynamic(du *unit, fn func() any) []dom.Node {
	du.slot = newSlot(m.adapter, "dynamic")
	m.bind(du, "children", fn,
		func(v any) { m.fill(du, ui.Nodes(v)) },
		func() { m.fill(du, []*ui.Node{ui.PlaceholderNode(m.placeholderFor(du), "")}) },
		func(err error) { m.fill(du, []*ui.Node{ui.ErrorNode(asyncError(err))}) },
	)
	return du.slot.all()
}

// fill replaces the content of u's slot. The previous content unit and
// everything it owns is cleaned up first; the new content gets a fresh one.
func (m *Manager) fill(u *unit, nodes []*ui.Node) {
	if u.disposed {
		return
	}
	for _, h := range m.arena.Children(u.handle) {
		if c := m.arena.get(h); c != nil {
			m.dispose(c)
		}
	}
	content := m.arena.alloc(u.handle)
	for _, n := range nodes {
		content.nodes = append(content.nodes, m.buildSafe(content, n)...)
	}
	u.slot.replace(content.nodes)
}

// bind creates, registers and runs a binding owned by u.
func (m *Manager) bind(u *unit, name string, compute func() any, apply func(any), pending func(), rejected func(error)) *binding.Binding {
	opts := []binding.Option{
		binding.WithName(name),
		binding.WithLogger(m.logger),
		binding.WithPromiseTracker(m.promises),
		binding.WithBudget(m.budget),
		binding.WithObserver(m.observer),
	}
	if pending != nil {
		opts = append(opts, binding.WithPending(pending))
	}
	if rejected != nil {
		opts = append(opts, binding.WithRejected(rejected))
	}
	b := binding.New(m.store, compute, apply, opts...)
	u.bindings = append(u.bindings, b)
	b.Run()
	return b
}

// placeholderFor resolves the placeholder of u or its nearest configured
// ancestor.
func (m *Manager) placeholderFor(u *unit) *ui.Placeholder {
	for cur := u; cur != nil; cur = m.arena.get(cur.parent) {
		if cur.placeholder != nil {
			return cur.placeholder
		}
	}
	return m.placeholder
}

// =============================================================================
// Components
// =============================================================================

// component creates an instance in cu and returns the slot nodes.
func (m *Manager) component(cu *unit, name string, props ui.Props) []dom.Node {
	cu.slot = newSlot(m.adapter, "component:"+name)
	inst := &Instance{id: uint64(cu.handle), name: name, props: props}
	cu.inst = inst

	fn, ok := m.registry[name]
	if !ok {
		m.fail(cu, rxerrors.New(rxerrors.CodeUnknownComponent).
			WithComponent(name).
			Wrap(ErrUnknownComponent))
		return cu.slot.all()
	}

	resolved, futures, keys := splitProps(props)
	if len(futures) == 0 {
		inst.props = resolved
		m.invoke(cu, fn)
		return cu.slot.all()
	}

	// Never render with partially resolved props.
	inst.phase = PhaseAsyncPending
	inst.generation++
	gen := inst.generation
	m.fill(cu, []*ui.Node{ui.PlaceholderNode(m.placeholderFor(cu), name)})
	for _, f := range futures {
		m.promises.Track(f)
	}
	scheduler.All(m.store.Loop(), futures).Then(func(v any, err error) {
		if cu.disposed || gen != inst.generation {
			return
		}
		if err != nil {
			m.fail(cu, m.rejection(name, err))
			return
		}
		for i, value := range v.([]any) {
			resolved[keys[i]] = value
		}
		inst.props = resolved
		m.invoke(cu, fn)
	})
	return cu.slot.all()
}

// splitProps separates pending futures from resolved props. Settled
// futures are replaced by their values.
func splitProps(props ui.Props) (resolved ui.Props, futures []*scheduler.Future, keys []string) {
	resolved = props.Clone()
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		f, ok := props[k].(*scheduler.Future)
		if !ok {
			continue
		}
		if f.Settled() {
			v, err := f.Result()
			if err == nil {
				resolved[k] = v
				continue
			}
		}
		futures = append(futures, f)
		keys = append(keys, k)
	}
	return resolved, futures, keys
}

// invoke calls the component function and dispatches its result.
func (m *Manager) invoke(cu *unit, fn Func) {
	inst := cu.inst
	ctx := &Context{m: m, u: cu, inst: inst}

	var res Result
	err := m.protect(func() {
		m.store.Tracker().Untracked(func() {
			res = fn(inst.props, ctx)
		})
	})
	if err != nil {
		m.fail(cu, rxerrors.FromError(err, rxerrors.CodeComponentRender).WithComponent(inst.name))
		return
	}
	m.dispatch(cu, res)
}

// dispatch renders a component result. Every variant is handled here.
func (m *Manager) dispatch(cu *unit, res Result) {
	inst := cu.inst
	inst.generation++
	gen := inst.generation

	switch r := res.(type) {
	case nil:
		inst.kind = KindStatic
		m.fill(cu, nil)
		m.scheduleMount(cu)

	case Static:
		inst.kind = KindStatic
		m.fill(cu, ui.Nodes(r.Node))
		m.scheduleMount(cu)

	case Fragment:
		inst.kind = KindFragment
		m.fill(cu, r.Nodes)
		m.scheduleMount(cu)

	case Lifecycle:
		inst.kind = KindLifecycle
		inst.hooks = r.Hooks
		inst.api = r.API
		if r.Render == nil {
			m.fill(cu, nil)
			m.scheduleMount(cu)
			return
		}
		var out any
		err := m.protect(func() {
			m.store.Tracker().Untracked(func() { out = r.Render() })
		})
		if err != nil {
			m.fail(cu, rxerrors.FromError(err, rxerrors.CodeComponentRender).WithComponent(inst.name))
			return
		}
		f, ok := out.(*scheduler.Future)
		if !ok {
			m.fill(cu, ui.Nodes(out))
			m.scheduleMount(cu)
			return
		}
		m.await(cu, gen, f, func(v any) {
			m.fill(cu, ui.Nodes(v))
			m.scheduleMount(cu)
		})

	case Reactive:
		inst.kind = KindReactive
		if r.Render == nil {
			m.fill(cu, nil)
			m.scheduleMount(cu)
			return
		}
		b := m.bind(cu, "component:"+inst.name, r.Render,
			func(v any) { m.fill(cu, ui.Nodes(v)) },
			func() { m.fill(cu, []*ui.Node{ui.PlaceholderNode(m.placeholderFor(cu), inst.name)}) },
			func(err error) {
				inst.err = m.rejection(inst.name, err)
				m.fill(cu, []*ui.Node{ui.ErrorNode(inst.err)})
			},
		)
		inst.reactive = b.Run
		m.scheduleMount(cu)

	case Pending:
		inst.kind = KindPending
		if r.Future == nil {
			m.fill(cu, nil)
			m.scheduleMount(cu)
			return
		}
		m.await(cu, gen, r.Future, func(v any) {
			m.dispatch(cu, Classify(v))
		})

	default:
		m.fail(cu, rxerrors.New(rxerrors.CodeComponentRender).
			WithComponent(inst.name).
			Wrap(fmt.Errorf("%w: %T", ErrUnknownResult, res)))
	}
}

// await shows a placeholder in cu until f settles. Only the dispatch
// generation that started the wait may swap in the result.
func (m *Manager) await(cu *unit, gen uint64, f *scheduler.Future, done func(v any)) {
	inst := cu.inst
	if !f.Settled() {
		inst.phase = PhaseAsyncPending
		m.fill(cu, []*ui.Node{ui.PlaceholderNode(m.placeholderFor(cu), inst.name)})
		m.promises.Track(f)
	}
	f.Then(func(v any, err error) {
		if cu.disposed || gen != inst.generation {
			return
		}
		if err != nil {
			m.fail(cu, m.rejection(inst.name, err))
			return
		}
		if err := m.protect(func() { done(v) }); err != nil {
			m.fail(cu, rxerrors.FromError(err, rxerrors.CodeComponentRender).WithComponent(inst.name))
		}
	})
}

// scheduleMount runs OnMount after the current task, once the enclosing
// batch has committed. The unit's content is attached by then.
func (m *Manager) scheduleMount(cu *unit) {
	inst := cu.inst
	m.store.Loop().Defer(func() {
		m.store.AfterBatch(func() {
			if cu.disposed || inst.mounted {
				return
			}
			inst.mounted = true
			inst.phase = PhaseMounted
			if inst.hooks.OnMount != nil {
				m.hook(inst, "onMount", inst.hooks.OnMount)
			}
		})
	})
}

// fail renders err in place of the component.
func (m *Manager) fail(cu *unit, err *rxerrors.RxError) {
	inst := cu.inst
	inst.err = err
	m.logger.Error("component failed",
		slog.String("code", err.Code),
		slog.String("component", inst.name),
		slog.Uint64("instance", inst.id),
		slog.Any("error", err.Wrapped))
	m.fill(cu, []*ui.Node{ui.ErrorNode(err)})
}

func (m *Manager) rejection(name string, err error) *rxerrors.RxError {
	return rxerrors.FromError(err, rxerrors.CodeAsyncRejection).WithComponent(name)
}

// hook runs a lifecycle hook with panic isolation.
func (m *Manager) hook(inst *Instance, stage string, fn func()) {
	if err := m.protect(func() { m.store.Tracker().Untracked(fn) }); err != nil {
		m.logger.Error("component hook failed",
			slog.String("code", rxerrors.CodeComponentRender),
			slog.String("component", inst.name),
			slog.String("hook", stage),
			slog.Any("error", err))
	}
}

// protect runs fn and converts a panic into an error.
func (m *Manager) protect(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rxerrors.FromPanic(r, rxerrors.CodeComponentRender)
		}
	}()
	fn()
	return nil
}

// =============================================================================
// Cleanup
// =============================================================================

// dispose tears down u's subtree in two phases: release everything, then
// detach nodes and free the arena records.
func (m *Manager) dispose(root *unit) {
	var units []*unit
	m.arena.walk(root, func(u *unit) {
		if !u.disposed {
			units = append(units, u)
		}
	})

	m.store.ExecuteBatch(func() {
		for _, u := range units {
			m.release(u)
		}
	})
	m.store.AfterBatch(m.pruneLocal)

	for _, u := range units {
		for _, n := range u.nodes {
			m.adapter.Remove(n)
		}
		if u.slot != nil {
			for _, n := range u.slot.all() {
				m.adapter.Remove(n)
			}
		}
		m.arena.free(u)
	}
}

// release runs u's teardown without touching rendered nodes.
func (m *Manager) release(u *unit) {
	u.disposed = true
	inst := u.inst
	if inst != nil && inst.mounted && inst.hooks.OnUnmount != nil {
		m.hook(inst, "onUnmount", inst.hooks.OnUnmount)
	}

	for _, b := range u.bindings {
		b.Dispose()
	}
	u.bindings = nil

	for i := len(u.cleanups) - 1; i >= 0; i-- {
		if err := m.protect(u.cleanups[i]); err != nil {
			m.logger.Error("cleanup failed", slog.Any("error", err))
		}
	}
	u.cleanups = nil

	if inst != nil {
		if len(inst.paths) > 0 {
			m.store.Delete(state.Join(LocalPrefix, strconv.FormatUint(inst.id, 10)))
		}
		inst.phase = PhaseUnmounted
	}
}

// pruneLocal removes the private state root once no instance holds
// private state.
func (m *Manager) pruneLocal() {
	if local, ok := m.store.GetUntracked(LocalPrefix, nil).(map[string]any); ok && len(local) == 0 {
		m.store.Delete(LocalPrefix)
	}
}

// =============================================================================
// Helpers
// =============================================================================

func textOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func asyncError(err error) *rxerrors.RxError {
	return rxerrors.FromError(err, rxerrors.CodeAsyncRejection)
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
