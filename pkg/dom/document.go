package dom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/rx/pkg/ui"
)

// NodeType is the type of an in-memory node.
type NodeType uint8

const (
	ElementNode NodeType = iota
	TextNode
	AnchorNode
)

// Element is a node of a Document.
type Element struct {
	Type     NodeType
	Tag      string
	Text     string
	Attrs    map[string]string
	Style    map[string]string
	Children []*Element
	parent   *Element
}

// Parent returns the parent element, or nil if detached.
func (e *Element) Parent() *Element {
	return e.parent
}

// Attr returns the value of an attribute and whether it is set.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// TextContent returns the concatenated text of e and its descendants.
func (e *Element) TextContent() string {
	switch e.Type {
	case TextNode:
		return e.Text
	case AnchorNode:
		return ""
	}
	var b strings.Builder
	for _, c := range e.Children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// Find returns the first descendant element (depth-first, e included)
// for which match returns true.
func (e *Element) Find(match func(*Element) bool) *Element {
	if match(e) {
		return e
	}
	for _, c := range e.Children {
		if found := c.Find(match); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant element (e included) matching match.
func (e *Element) FindAll(match func(*Element) bool) []*Element {
	var out []*Element
	if match(e) {
		out = append(out, e)
	}
	for _, c := range e.Children {
		out = append(out, c.FindAll(match)...)
	}
	return out
}

// HasClass reports whether the class attribute contains class.
func (e *Element) HasClass(class string) bool {
	for _, c := range strings.Fields(e.Attrs["class"]) {
		if c == class {
			return true
		}
	}
	return false
}

func (e *Element) indexOf(child *Element) int {
	for i, c := range e.Children {
		if c == child {
			return i
		}
	}
	return -1
}

func (e *Element) detach() {
	if e.parent == nil {
		return
	}
	if i := e.parent.indexOf(e); i >= 0 {
		e.parent.Children = append(e.parent.Children[:i], e.parent.Children[i+1:]...)
	}
	e.parent = nil
}

// Document is an in-memory Adapter.
type Document struct {
	// Body is the root container mounted trees are usually attached to.
	Body *Element

	// Mutations counts every mutating call, for tests and metrics.
	Mutations int
}

// NewDocument creates an empty document with a body element.
func NewDocument() *Document {
	return &Document{Body: newElement("body")}
}

func newElement(tag string) *Element {
	return &Element{
		Type:  ElementNode,
		Tag:   tag,
		Attrs: make(map[string]string),
		Style: make(map[string]string),
	}
}

func el(n Node) *Element {
	e, ok := n.(*Element)
	if !ok {
		panic(fmt.Sprintf("dom: foreign node %T", n))
	}
	return e
}

// CreateElement implements Adapter.
func (d *Document) CreateElement(tag string) Node {
	return newElement(tag)
}

// CreateText implements Adapter.
func (d *Document) CreateText(text string) Node {
	return &Element{Type: TextNode, Text: text}
}

// CreateAnchor implements Adapter.
func (d *Document) CreateAnchor(label string) Node {
	return &Element{Type: AnchorNode, Text: label}
}

// SetText implements Adapter.
func (d *Document) SetText(n Node, text string) {
	d.Mutations++
	el(n).Text = text
}

// SetAttr implements Adapter.
func (d *Document) SetAttr(n Node, name string, value any) {
	d.Mutations++
	e := el(n)
	switch v := value.(type) {
	case nil:
		delete(e.Attrs, name)
	case bool:
		if v {
			e.Attrs[name] = ""
		} else {
			delete(e.Attrs, name)
		}
	default:
		e.Attrs[name] = fmt.Sprint(v)
	}
}

// SetStyle implements Adapter.
func (d *Document) SetStyle(n Node, name string, value any) {
	d.Mutations++
	e := el(n)
	if value == nil {
		delete(e.Style, name)
		return
	}
	e.Style[name] = fmt.Sprint(value)
}

// AppendChild implements Adapter.
func (d *Document) AppendChild(parent, child Node) {
	d.InsertBefore(parent, child, nil)
}

// InsertBefore implements Adapter.
func (d *Document) InsertBefore(parent, child, ref Node) {
	d.Mutations++
	p, c := el(parent), el(child)
	c.detach()
	c.parent = p

	i := len(p.Children)
	if ref != nil {
		if r := p.indexOf(el(ref)); r >= 0 {
			i = r
		}
	}
	p.Children = append(p.Children, nil)
	copy(p.Children[i+1:], p.Children[i:])
	p.Children[i] = c
}

// Remove implements Adapter.
func (d *Document) Remove(n Node) {
	e := el(n)
	if e.parent == nil {
		return
	}
	d.Mutations++
	e.detach()
}

// Parent implements Adapter.
func (d *Document) Parent(n Node) Node {
	if p := el(n).parent; p != nil {
		return p
	}
	return nil
}

// Snapshot converts the subtree rooted at n into a static UI description.
// Anchors are dropped.
func Snapshot(n *Element) *ui.Node {
	switch n.Type {
	case TextNode:
		return ui.Text(n.Text)
	case AnchorNode:
		return nil
	}

	node := &ui.Node{Kind: ui.KindElement, Tag: n.Tag, Props: make(ui.Props, len(n.Attrs)+1)}
	for k, v := range n.Attrs {
		node.Props[k] = v
	}
	if len(n.Style) > 0 {
		node.Props["style"] = styleString(n.Style)
	}
	for _, c := range n.Children {
		if child := Snapshot(c); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

// SnapshotChildren is Snapshot for every child of n, wrapped in a fragment.
func SnapshotChildren(n *Element) *ui.Node {
	frag := &ui.Node{Kind: ui.KindFragment}
	for _, c := range n.Children {
		if child := Snapshot(c); child != nil {
			frag.Children = append(frag.Children, child)
		}
	}
	return frag
}

func styleString(style map[string]string) string {
	names := make([]string, 0, len(style))
	for k := range style {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+":"+style[k])
	}
	return strings.Join(parts, ";")
}
