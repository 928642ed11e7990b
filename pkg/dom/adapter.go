package dom

// Node is an opaque handle to a node owned by an Adapter.
type Node any

// Adapter creates and mutates rendered nodes.
//
// Every method is called on the runtime's loop goroutine. Methods receiving
// a node the adapter did not create may panic.
type Adapter interface {
	// CreateElement creates a detached element.
	CreateElement(tag string) Node

	// CreateText creates a detached text node.
	CreateText(text string) Node

	// CreateAnchor creates an invisible marker node used to delimit
	// dynamic regions.
	CreateAnchor(label string) Node

	// SetText replaces the content of a text node.
	SetText(n Node, text string)

	// SetAttr sets an attribute. A nil or false value removes it.
	SetAttr(n Node, name string, value any)

	// SetStyle sets one inline style property. A nil value removes it.
	SetStyle(n Node, name string, value any)

	// AppendChild appends child to parent, detaching it first if needed.
	AppendChild(parent, child Node)

	// InsertBefore inserts child into parent before ref. A nil ref appends.
	InsertBefore(parent, child, ref Node)

	// Remove detaches n from its parent. Removing a detached node is a no-op.
	Remove(n Node)

	// Parent returns n's parent, or nil if detached.
	Parent(n Node) Node
}
