package state

import "sort"

// Change describes a single notification delivered to a subscriber.
type Change struct {
	// Path is the path the subscriber is subscribed to.
	Path string

	// Changed is the written path that caused the notification.
	Changed string

	// Value is the value at Path once the write (or the whole batch) has
	// been applied.
	Value any
}

// Listener is an internal subscriber. Bindings implement it.
// Notify is called synchronously on the loop goroutine.
type Listener interface {
	// ID identifies the listener for per-cycle deduplication.
	ID() uint64

	// Notify is called once per notification cycle in which any of the
	// listener's paths was affected.
	Notify(c Change)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc struct {
	id uint64
	fn func(Change)
}

// NewListenerFunc wraps fn with a fresh listener ID.
func NewListenerFunc(fn func(Change)) *ListenerFunc {
	return &ListenerFunc{id: NextID(), fn: fn}
}

// ID implements Listener.
func (l *ListenerFunc) ID() uint64 { return l.id }

// Notify implements Listener.
func (l *ListenerFunc) Notify(c Change) { l.fn(c) }

// subscription is one registry entry.
type subscription struct {
	id   uint64
	path string

	// listener is set for internal subscriptions, fn for external ones.
	listener Listener
	fn       func(Change)

	// hierarchical is always true for internal subscriptions.
	hierarchical bool
	active       bool
}

func (s *subscription) internal() bool {
	return s.listener != nil
}

// dedupeKey identifies the subscriber for once-per-cycle delivery.
// Internal subscriptions dedupe by listener so a binding subscribed to both
// "a" and "a.b" runs once.
func (s *subscription) dedupeKey() uint64 {
	if s.listener != nil {
		return s.listener.ID()
	}
	return s.id
}

// delivery is a subscription selected for a notification cycle.
type delivery struct {
	sub     *subscription
	changed string
}

// registry maps paths to subscriptions, internal and external alike.
// Subscriptions on a path are kept in registration order.
type registry struct {
	byPath map[string][]*subscription
	count  int
}

func newRegistry() *registry {
	return &registry{byPath: make(map[string][]*subscription)}
}

func (r *registry) add(sub *subscription) func() {
	sub.id = NextID()
	sub.active = true
	r.byPath[sub.path] = append(r.byPath[sub.path], sub)
	r.count++
	return func() { r.remove(sub) }
}

// remove is idempotent.
func (r *registry) remove(sub *subscription) {
	if !sub.active {
		return
	}
	sub.active = false
	subs := r.byPath[sub.path]
	for i, s := range subs {
		if s == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(r.byPath, sub.path)
	} else {
		r.byPath[sub.path] = subs
	}
	r.count--
}

// Len returns the number of live subscriptions.
func (r *registry) Len() int {
	return r.count
}

// pathsUnder returns subscribed paths strictly below path, sorted.
func (r *registry) pathsUnder(path string) []string {
	var out []string
	for p := range r.byPath {
		if IsDescendant(p, path) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// collect selects the subscriptions affected by changes to the given paths.
//
// For each changed path P, in order: (1) every subscription on P, (2) internal
// and hierarchical subscriptions on ancestors of P, nearest first, (3)
// internal and hierarchical subscriptions on descendants of P. Exact external
// subscriptions only match P itself. Each subscriber appears at most once.
func (r *registry) collect(changed []string) []delivery {
	seen := make(map[uint64]struct{})
	var out []delivery

	take := func(sub *subscription, p string) {
		key := sub.dedupeKey()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, delivery{sub: sub, changed: p})
	}

	for _, p := range changed {
		for _, sub := range r.byPath[p] {
			take(sub, p)
		}
		for _, anc := range Ancestors(p) {
			for _, sub := range r.byPath[anc] {
				if sub.hierarchical {
					take(sub, p)
				}
			}
		}
		for _, desc := range r.pathsUnder(p) {
			for _, sub := range r.byPath[desc] {
				if sub.hierarchical {
					take(sub, p)
				}
			}
		}
	}
	return out
}
