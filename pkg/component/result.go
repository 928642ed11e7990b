package component

import (
	"fmt"

	"github.com/vango-dev/rx/pkg/scheduler"
	"github.com/vango-dev/rx/pkg/ui"
)

// Kind identifies a Result variant.
type Kind uint8

const (
	KindStatic Kind = iota
	KindFragment
	KindLifecycle
	KindReactive
	KindPending
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "Static"
	case KindFragment:
		return "Fragment"
	case KindLifecycle:
		return "Lifecycle"
	case KindReactive:
		return "Reactive"
	case KindPending:
		return "Pending"
	default:
		return "Unknown"
	}
}

// Result is what a component function returns. The set of variants is
// closed: Static, Fragment, Lifecycle, Reactive and Pending.
type Result interface {
	Kind() Kind
	result()
}

// Static renders a description once.
type Static struct {
	Node *ui.Node
}

// Fragment renders sibling nodes without a wrapper element.
type Fragment struct {
	Nodes []*ui.Node
}

// Hooks are the lifecycle callbacks of a Lifecycle component.
type Hooks struct {
	// OnMount runs after the rendered nodes are attached, once the
	// enclosing batch has committed.
	OnMount func()

	// OnUpdate runs when Manager.Update receives props that are not
	// deep-equal to the current ones.
	OnUpdate func(old, new ui.Props)

	// OnUnmount runs during cleanup, before any node is detached.
	OnUnmount func()
}

// Lifecycle renders once and receives lifecycle hooks.
type Lifecycle struct {
	// Render produces the component's content. It may return a
	// *scheduler.Future.
	Render func() any
	Hooks  Hooks

	// API is an arbitrary value exposed through Instance.API.
	API any
}

// Reactive re-renders whenever state read by Render changes.
type Reactive struct {
	// Render may return a *scheduler.Future; a placeholder is shown
	// until it settles.
	Render func() any
}

// Pending shows a placeholder until Future settles, then dispatches the
// settled value through Classify.
type Pending struct {
	Future *scheduler.Future
}

func (Static) Kind() Kind    { return KindStatic }
func (Fragment) Kind() Kind  { return KindFragment }
func (Lifecycle) Kind() Kind { return KindLifecycle }
func (Reactive) Kind() Kind  { return KindReactive }
func (Pending) Kind() Kind   { return KindPending }

func (Static) result()    {}
func (Fragment) result()  {}
func (Lifecycle) result() {}
func (Reactive) result()  {}
func (Pending) result()   {}

// Classify maps an untyped value to a Result. It is used for the settled
// values of Pending results and for adapting untyped render functions.
func Classify(v any) Result {
	switch x := v.(type) {
	case nil:
		return Static{}
	case Result:
		return x
	case *scheduler.Future:
		return Pending{Future: x}
	case []*ui.Node:
		return Fragment{Nodes: x}
	case []any:
		return Fragment{Nodes: ui.Nodes(x)}
	case *ui.Node:
		return Static{Node: x}
	case func() any:
		return Reactive{Render: x}
	case string:
		return Static{Node: ui.Text(x)}
	default:
		return Static{Node: ui.Text(fmt.Sprint(x))}
	}
}
