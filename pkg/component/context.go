package component

import (
	"log/slog"
	"strconv"

	"github.com/vango-dev/rx/pkg/scheduler"
	"github.com/vango-dev/rx/pkg/state"
	"github.com/vango-dev/rx/pkg/ui"
)

// Context is passed to component functions.
type Context struct {
	m    *Manager
	u    *unit
	inst *Instance
}

// ID returns the instance ID.
func (c *Context) ID() uint64 {
	return c.inst.id
}

// Name returns the component name.
func (c *Context) Name() string {
	return c.inst.name
}

// Props returns the instance's current props. Reactive renders read it on
// every run, so Update is reflected.
func (c *Context) Props() ui.Props {
	return c.inst.props
}

// Store returns the state store.
func (c *Context) Store() *state.Store {
	return c.m.store
}

// Loop returns the scheduler loop.
func (c *Context) Loop() *scheduler.Loop {
	return c.m.store.Loop()
}

// Logger returns a logger annotated with the component.
func (c *Context) Logger() *slog.Logger {
	return c.m.logger.With(
		slog.String("component", c.inst.name),
		slog.Uint64("instance", c.inst.id))
}

// Get reads state. Reads are tracked when made inside a reactive render.
func (c *Context) Get(path string, def any) any {
	return c.m.store.Get(path, def)
}

// Set writes state.
func (c *Context) Set(path string, value any) {
	c.m.store.Set(path, value)
}

// OnCleanup registers fn to run when the instance is cleaned up.
func (c *Context) OnCleanup(fn func()) {
	if fn != nil {
		c.u.cleanups = append(c.u.cleanups, fn)
	}
}

// StatePath returns the private state path for key.
func (c *Context) StatePath(key string) string {
	return state.Join(LocalPrefix, strconv.FormatUint(c.inst.id, 10), key)
}

// NewState creates instance-private state under "##local.<id>.<key>" and
// returns its getter and setter. The first call for a key in an instance
// writes initial, replacing anything left at the path; later calls (from
// re-renders) keep the current value. The getter is a tracked read that
// falls back to initial while the path is missing. The path is deleted
// when the instance is cleaned up.
func (c *Context) NewState(key string, initial any) (get func() any, set func(any)) {
	path := c.StatePath(key)
	store := c.m.store

	known := false
	for _, p := range c.inst.paths {
		if p == path {
			known = true
			break
		}
	}
	if !known {
		c.inst.paths = append(c.inst.paths, path)
		store.Set(path, state.Copy(initial))
	}

	get = func() any {
		return store.Get(path, initial)
	}
	set = func(v any) {
		store.Set(path, v)
	}
	return get, set
}

// UseState is the typed form of NewState. A stored value of another type
// reads as initial.
func UseState[T any](c *Context, key string, initial T) (get func() T, set func(T)) {
	getAny, setAny := c.NewState(key, initial)
	get = func() T {
		if v, ok := getAny().(T); ok {
			return v
		}
		return initial
	}
	set = func(v T) {
		setAny(v)
	}
	return get, set
}
