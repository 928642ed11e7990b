package ui

import (
	"fmt"
	"sort"
)

// Attr is a single attribute.
type Attr struct {
	Key   string
	Value any
}

// Prop creates an attribute.
func Prop(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Class sets the class attribute. value may be reactive.
func Class(value any) Attr {
	return Attr{Key: "class", Value: value}
}

// ID sets the id attribute.
func ID(value any) Attr {
	return Attr{Key: "id", Value: value}
}

// StyleProp is a single inline style declaration.
type StyleProp struct {
	Name  string
	Value any
}

// Style sets one inline style property. value may be reactive.
func Style(name string, value any) StyleProp {
	return StyleProp{Name: name, Value: value}
}

// El creates an element.
// Arguments can be: nil, Attr, StyleProp, Props, *Placeholder, *Node,
// []*Node, string (text child) or a reactive function (dynamic child).
func El(tag string, args ...any) *Node {
	node := &Node{
		Kind:  KindElement,
		Tag:   tag,
		Props: make(Props),
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			if v.Key == "key" {
				node.Key = fmt.Sprint(v.Value)
				continue
			}
			node.Props[v.Key] = v.Value
		case StyleProp:
			style, _ := node.Props["style"].(map[string]any)
			if style == nil {
				style = make(map[string]any)
				node.Props["style"] = style
			}
			style[v.Name] = v.Value
		case Props:
			for k, pv := range v {
				node.Props[k] = pv
			}
		case *Placeholder:
			node.Placeholder = v
		default:
			node.Children = appendChild(node.Children, arg)
		}
	}
	return node
}

// Text creates a static text node.
func Text(content string) *Node {
	return &Node{Kind: KindText, Text: content}
}

// Textf creates a formatted static text node.
func Textf(format string, args ...any) *Node {
	return Text(fmt.Sprintf(format, args...))
}

// TextFn creates a reactive text node.
func TextFn(fn func() any) *Node {
	return &Node{Kind: KindText, Fn: fn}
}

// Dynamic creates a reactive region. fn may return nil, a string or other
// scalar (rendered as text), *Node, []*Node or a *scheduler.Future of those.
func Dynamic(fn func() any) *Node {
	return &Node{Kind: KindDynamic, Fn: fn}
}

// Fragment groups children without a wrapper element.
func Fragment(children ...any) *Node {
	node := &Node{Kind: KindFragment}
	for _, child := range children {
		node.Children = appendChild(node.Children, child)
	}
	return node
}

// Component references a registered component.
func Component(name string, props Props) *Node {
	return &Node{Kind: KindComponent, Name: name, Props: props}
}

// WithPlaceholder sets n's placeholder configuration and returns n.
func WithPlaceholder(n *Node, p *Placeholder) *Node {
	if n != nil {
		n.Placeholder = p
	}
	return n
}

// If returns the node if condition is true, nil otherwise.
func If(condition bool, node *Node) *Node {
	if condition {
		return node
	}
	return nil
}

// When is like If but with lazy evaluation.
func When(condition bool, fn func() *Node) *Node {
	if condition {
		return fn()
	}
	return nil
}

// Range maps a slice to nodes, skipping nil results.
func Range[T any](items []T, fn func(item T, index int) *Node) []*Node {
	result := make([]*Node, 0, len(items))
	for i, item := range items {
		if node := fn(item, i); node != nil {
			result = append(result, node)
		}
	}
	return result
}

// RangeKeys maps a mapping to nodes in sorted key order.
func RangeKeys[V any](m map[string]V, fn func(key string, value V) *Node) []*Node {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	result := make([]*Node, 0, len(keys))
	for _, k := range keys {
		if node := fn(k, m[k]); node != nil {
			result = append(result, node)
		}
	}
	return result
}

// Nodes converts a computed value into nodes: nil yields none, *Node and
// []*Node are used as is, []any is flattened and anything else becomes a
// text node.
func Nodes(v any) []*Node {
	return appendChild(nil, v)
}

func appendChild(children []*Node, child any) []*Node {
	switch v := child.(type) {
	case nil:
		return children
	case *Node:
		if v != nil {
			children = append(children, v)
		}
	case []*Node:
		for _, c := range v {
			if c != nil {
				children = append(children, c)
			}
		}
	case []any:
		for _, c := range v {
			children = appendChild(children, c)
		}
	case string:
		children = append(children, Text(v))
	default:
		if fn, ok := Reactive(child); ok {
			return append(children, Dynamic(fn))
		}
		children = append(children, Text(fmt.Sprint(v)))
	}
	return children
}
