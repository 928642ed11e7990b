// Package state provides the path-addressed reactive state store at the
// heart of the rx runtime.
//
// State lives in a single tree of nested map[string]any values addressed by
// dot-separated paths. Reading a path while a DependencySet is being
// collected records the path as a dependency; writing a path notifies every
// subscriber of that path, of its ancestors and of its descendants.
//
// # Reading and Writing
//
//	store := state.New(state.Config{})
//	store.Set("user.name", "Ada")
//	name := store.Get("user.name", "")        // "Ada"
//	missing := store.Get("missing.path", "x") // "x", never panics
//
// # Dependency Tracking
//
// Exactly one DependencySet is active at a time. Track installs a fresh set,
// runs fn and restores whatever was active before:
//
//	deps := store.Tracker().Track(func() {
//	    if store.Get("flag", false).(bool) {
//	        store.Get("a", nil)
//	    } else {
//	        store.Get("b", nil)
//	    }
//	})
//
// Tracking never crosses a suspension point: continuations of a
// scheduler.Future run on the loop with no active set, so reads made after
// an asynchronous boundary are never attributed to the evaluation that
// started it.
//
// # Batching
//
// Writes inside ExecuteBatch are queued, deduplicated per path (last write
// wins) and committed together. Every affected subscriber is notified once,
// after all writes have been applied:
//
//	store.ExecuteBatch(func() {
//	    store.Set("x", 1)
//	    store.Set("x", 2)
//	    store.Set("x", 3)
//	}) // subscribers of "x" run once and observe 3
//
// # Thread Safety
//
// A Store is not safe for concurrent use. It belongs to the goroutine
// driving its scheduler.Loop; other goroutines must post work to the loop.
package state
