// Package ui defines the plain-data UI description consumed by the runtime.
//
// A description is a tree of *Node values. Any property value that is a
// function is reactive: the runtime wraps it in a binding and re-applies it
// whenever the state it reads changes.
//
//	ui.El("p",
//	    ui.Class(func() any { return store.Get("theme", "light") }),
//	    ui.Text("Hello, "),
//	    ui.Dynamic(func() any { return store.Get("user.name", "stranger") }),
//	)
//
// Components are referenced by registered name:
//
//	ui.Component("Counter", ui.Props{"start": 3})
package ui
