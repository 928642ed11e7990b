package ui

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement   Kind = iota // <div>, <button>, etc.
	KindText                  // Static or reactive text
	KindFragment              // Grouping without wrapper
	KindComponent             // Registered component reference
	KindDynamic               // Reactive region re-rendered on change
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindComponent:
		return "Component"
	case KindDynamic:
		return "Dynamic"
	default:
		return "Unknown"
	}
}

// Node is one node of a UI description.
type Node struct {
	Kind     Kind
	Tag      string  // Element tag name
	Props    Props   // Attributes; function values are reactive
	Children []*Node // Child nodes
	Key      string  // Optional identity for diagnostics

	// Text is the content of a static KindText node.
	Text string

	// Fn computes the content of a reactive KindText node or a KindDynamic
	// region. It may return a *scheduler.Future.
	Fn func() any

	// Name is the registered component name for KindComponent.
	Name string

	// Placeholder configures what async work under this node shows while
	// pending. The nearest configured ancestor applies.
	Placeholder *Placeholder
}

// Props holds attributes and component properties.
type Props map[string]any

// Clone returns a shallow copy of p.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Placeholder is the transient content shown in place of a pending async
// value.
type Placeholder struct {
	// Text replaces pending text values, and is the content of the
	// placeholder element when Children is empty. Pending attribute and
	// style values keep their previous value instead.
	Text string

	// Class and Style are applied to the placeholder element.
	Class string
	Style map[string]string

	// Children, if set, is rendered instead of Text.
	Children []*Node
}

// DefaultPlaceholder is used when no unit in the ancestry configures one.
var DefaultPlaceholder = &Placeholder{
	Text:  "Loading…",
	Class: "rx-placeholder",
}

// IsReactive reports whether the node has a reactive part of its own.
func (n *Node) IsReactive() bool {
	if n == nil {
		return false
	}
	if n.Fn != nil {
		return true
	}
	for _, v := range n.Props {
		if _, ok := Reactive(v); ok {
			return true
		}
		if style, ok := v.(map[string]any); ok {
			for _, sv := range style {
				if _, ok := Reactive(sv); ok {
					return true
				}
			}
		}
	}
	return false
}
