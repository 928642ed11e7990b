package component

import (
	"github.com/vango-dev/rx/pkg/binding"
	"github.com/vango-dev/rx/pkg/dom"
	"github.com/vango-dev/rx/pkg/ui"
)

// Handle addresses a unit in an Arena. The zero Handle addresses nothing.
type Handle uint64

// unit is one arena record: a piece of mounted UI that owns reactive
// resources.
type unit struct {
	handle   Handle
	parent   Handle
	children []Handle

	bindings []*binding.Binding
	cleanups []func()

	// nodes are the top-level rendered nodes of a unit built in place.
	// Units with a slot own the slot's nodes instead.
	nodes []dom.Node
	slot  *slot

	placeholder *ui.Placeholder
	inst        *Instance

	disposed bool
}

// Arena stores units by handle. Handles are never reused.
type Arena struct {
	units map[Handle]*unit
	next  Handle
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{units: make(map[Handle]*unit)}
}

func (a *Arena) alloc(parent Handle) *unit {
	a.next++
	u := &unit{handle: a.next, parent: parent}
	a.units[u.handle] = u
	if p := a.units[parent]; p != nil {
		p.children = append(p.children, u.handle)
	}
	return u
}

func (a *Arena) get(h Handle) *unit {
	return a.units[h]
}

// free removes u from the arena and from its parent's child list.
func (a *Arena) free(u *unit) {
	delete(a.units, u.handle)
	p := a.units[u.parent]
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == u.handle {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
}

// Len returns the number of live units.
func (a *Arena) Len() int {
	return len(a.units)
}

// Contains reports whether h addresses a live unit.
func (a *Arena) Contains(h Handle) bool {
	_, ok := a.units[h]
	return ok
}

// Parent returns the parent handle of h, or zero for roots and unknown handles.
func (a *Arena) Parent(h Handle) Handle {
	if u := a.units[h]; u != nil {
		return u.parent
	}
	return 0
}

// Children returns a copy of h's child handles in creation order.
func (a *Arena) Children(h Handle) []Handle {
	u := a.units[h]
	if u == nil {
		return nil
	}
	out := make([]Handle, len(u.children))
	copy(out, u.children)
	return out
}

// Bindings returns the number of live bindings owned by h and its descendants.
func (a *Arena) Bindings(h Handle) int {
	u := a.units[h]
	if u == nil {
		return 0
	}
	n := 0
	for _, b := range u.bindings {
		if !b.Disposed() {
			n++
		}
	}
	for _, c := range u.children {
		n += a.Bindings(c)
	}
	return n
}

// walk calls fn for u's subtree, children first and in reverse creation
// order, then u itself.
func (a *Arena) walk(u *unit, fn func(*unit)) {
	for i := len(u.children) - 1; i >= 0; i-- {
		if c := a.units[u.children[i]]; c != nil {
			a.walk(c, fn)
		}
	}
	fn(u)
}
