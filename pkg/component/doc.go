// Package component manages component instances: it resolves registered
// component functions, dispatches their results, drives lifecycle hooks and
// tears instances down deterministically.
//
// # Results
//
// A component function returns a Result, a closed set of variants:
//
//	Static{Node}        render a description once
//	Fragment{Nodes}     render sibling nodes without a wrapper
//	Lifecycle{...}      render once and receive mount/update/unmount hooks
//	Reactive{Render}    re-render whenever state read by Render changes
//	Pending{Future}     show a placeholder until the future settles
//
// # Units
//
// Every mounted piece of UI that owns reactive resources is a unit in an
// Arena, addressed by a Handle. Units hold their child handles, bindings,
// cleanups and placeholder configuration. Cleanup walks a unit's subtree:
// hooks run and resources are released for every unit before any node is
// detached.
//
// # Instance State
//
// Context.NewState stores instance-private state under
// "##local.<instance id>.<key>". It is deleted when the instance is cleaned up.
package component
