package component

import (
	"github.com/vango-dev/rx/pkg/ui"
)

// LocalPrefix is the root of the instance-private state namespace.
const LocalPrefix = "##local"

// Phase is a component instance's lifecycle phase.
type Phase uint8

const (
	PhaseCreated Phase = iota
	PhaseAsyncPending
	PhaseMounted
	PhaseUpdated
	PhaseUnmounted
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "Created"
	case PhaseAsyncPending:
		return "AsyncPending"
	case PhaseMounted:
		return "Mounted"
	case PhaseUpdated:
		return "Updated"
	case PhaseUnmounted:
		return "Unmounted"
	default:
		return "Unknown"
	}
}

// Instance is one created component.
type Instance struct {
	id    uint64
	name  string
	props ui.Props
	kind  Kind
	phase Phase
	api   any
	err   error

	hooks    Hooks
	paths    []string
	reactive func()

	// generation gates async swaps: only the latest dispatch may settle.
	generation uint64
	mounted    bool
}

// ID returns the instance ID used in the private state namespace.
func (i *Instance) ID() uint64 { return i.id }

// Name returns the registered component name.
func (i *Instance) Name() string { return i.name }

// Props returns the current props.
func (i *Instance) Props() ui.Props { return i.props }

// Kind returns the kind of the last dispatched result.
func (i *Instance) Kind() Kind { return i.kind }

// Phase returns the lifecycle phase.
func (i *Instance) Phase() Phase { return i.phase }

// API returns the API value of a Lifecycle result, if any.
func (i *Instance) API() any { return i.api }

// Err returns the error rendered in place of the component, if any.
func (i *Instance) Err() error { return i.err }

// StatePaths returns the private state paths created by NewState.
func (i *Instance) StatePaths() []string {
	out := make([]string, len(i.paths))
	copy(out, i.paths)
	return out
}
