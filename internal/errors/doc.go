// Package errors provides the coded error catalogue of the rx runtime.
//
// Every condition the runtime contains instead of propagating (an invalid
// path, a failing middleware, a dropped circular write, a panicking
// subscriber, a component that failed to render) has a stable code. Codes
// appear in structured log records under the "code" key and in the inline
// error nodes rendered in place of failed units.
//
// # Error Categories
//
//   - state: path store, middleware and notification failures
//   - binding: reactive binding evaluation failures
//   - component: component resolution and render failures
//   - async: rejected futures surfaced to the UI
//   - config: configuration loading and validation
//   - cli: command line usage errors
//
// # Usage
//
//	err := errors.New(errors.CodeCircularUpdate).
//	    WithPath("todos.count").
//	    WithSuggestion("Write to a different path or defer the write with loop.Defer")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E102: Circular update dropped
//	//
//	//   path: todos.count
//	//
//	//   A write targeted a path whose own notification was still running.
//	//   ...
package errors
