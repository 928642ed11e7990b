// Package scheduler provides the host scheduling primitives used by the
// reactive runtime: a single-threaded cooperative Loop with macrotask and
// microtask queues, a Future type standing in for asynchronous results, and
// a PromiseTracker that detects quiescence for hydration.
//
// # Execution Model
//
// All reactive work runs on one goroutine, the one driving the Loop through
// Run, Drain or RunUntil. Other goroutines never touch reactive state
// directly; they hand work to the loop:
//
//	loop.Post(func() {
//	    store.Set("user.name", "Ada")
//	})
//
// Futures may be settled from any goroutine. Their continuations always run
// on the loop as microtasks, after the current task completes:
//
//	f := loop.Go(ctx, func(ctx context.Context) (any, error) {
//	    return fetchUser(ctx)
//	})
//	f.Then(func(v any, err error) {
//	    // runs on the loop goroutine
//	})
//
// # Ordering
//
// After every macrotask the microtask queue is drained completely, so
// continuations of settled futures observe the state left by the task that
// settled them before any later macrotask runs. Defer schedules a
// zero-delay macrotask; it is used to batch same-tick writes, to run mount
// hooks after attachment and to debounce observer callbacks.
package scheduler
