package ui

import (
	"errors"

	rxerrors "github.com/vango-dev/rx/internal/errors"
)

// ErrorClass is the class of inline error nodes.
const ErrorClass = "rx-error"

// ErrorNode renders err as a visible inline error: a div with class
// rx-error and role alert. Coded errors also carry data-code.
func ErrorNode(err error) *Node {
	if err == nil {
		err = errors.New("unknown error")
	}
	node := El("div",
		Class(ErrorClass),
		Prop("role", "alert"),
	)
	var rxErr *rxerrors.RxError
	if errors.As(err, &rxErr) {
		node.Props["data-code"] = rxErr.Code
		node.Children = append(node.Children, Text(rxErr.FormatCompact()))
		return node
	}
	node.Children = append(node.Children, Text(err.Error()))
	return node
}

// PlaceholderNode renders p for a pending unit. name labels the pending
// component, if any.
func PlaceholderNode(p *Placeholder, name string) *Node {
	if p == nil {
		p = DefaultPlaceholder
	}
	node := El("div", Prop("aria-busy", "true"))
	if p.Class != "" {
		node.Props["class"] = p.Class
	}
	if name != "" {
		node.Props["data-component"] = name
	}
	if len(p.Style) > 0 {
		style := make(map[string]any, len(p.Style))
		for prop, v := range p.Style {
			style[prop] = v
		}
		node.Props["style"] = style
	}
	if len(p.Children) > 0 {
		node.Children = append(node.Children, p.Children...)
	} else if p.Text != "" {
		node.Children = append(node.Children, Text(p.Text))
	}
	return node
}
