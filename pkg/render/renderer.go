package render

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/rx/pkg/ui"
)

// ErrUnresolvedComponent is returned for component nodes when no resolver
// is configured.
var ErrUnresolvedComponent = errors.New("rx: unresolved component")

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty indents nested block elements. Development only.
	Pretty bool

	// Indent is one indentation level in pretty mode. Defaults to two spaces.
	Indent string

	// Resolve expands component nodes. If nil, component nodes fail with
	// ErrUnresolvedComponent.
	Resolve func(name string, props ui.Props) (*ui.Node, error)
}

// Renderer serializes UI descriptions to HTML. A Renderer holds no
// per-call state and may be shared.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// RenderToString renders a tree to an HTML string.
func (r *Renderer) RenderToString(node *ui.Node) (string, error) {
	var sb strings.Builder
	if err := r.RenderToWriter(&sb, node); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderToWriter streams a tree to w. Reactive values are evaluated once.
func (r *Renderer) RenderToWriter(w io.Writer, node *ui.Node) error {
	hw := r.writer(w)
	r.node(hw, node, 0)
	return hw.err
}

func (r *Renderer) writer(w io.Writer) *htmlWriter {
	return &htmlWriter{w: w, pretty: r.config.Pretty, indent: r.config.Indent}
}

func (r *Renderer) node(hw *htmlWriter, n *ui.Node, depth int) {
	if n == nil || hw.err != nil {
		return
	}
	switch n.Kind {
	case ui.KindElement:
		r.element(hw, n, depth)
	case ui.KindText:
		if n.Fn != nil {
			hw.text(stringify(n.Fn()))
		} else {
			hw.text(n.Text)
		}
	case ui.KindFragment:
		r.nodes(hw, n.Children, depth)
	case ui.KindDynamic:
		r.nodes(hw, ui.Nodes(n.Fn()), depth)
	case ui.KindComponent:
		if r.config.Resolve == nil {
			hw.fail(fmt.Errorf("%w: %s", ErrUnresolvedComponent, n.Name))
			return
		}
		out, err := r.config.Resolve(n.Name, n.Props)
		if err != nil {
			hw.fail(err)
			return
		}
		r.node(hw, out, depth)
	default:
		hw.fail(fmt.Errorf("rx: unknown node kind %d", n.Kind))
	}
}

func (r *Renderer) nodes(hw *htmlWriter, children []*ui.Node, depth int) {
	for _, child := range children {
		r.node(hw, child, depth)
	}
}

func (r *Renderer) element(hw *htmlWriter, n *ui.Node, depth int) {
	class := classOf(n.Tag)

	hw.pad(depth)
	hw.raw("<" + n.Tag)
	r.attributes(hw, n.Props)
	hw.raw(">")
	if class.void() {
		hw.newline()
		return
	}

	// Only elements holding other elements get their children on separate
	// lines; text stays next to its tag.
	block := !class.inline() && hasElementChild(n)
	if block {
		hw.newline()
	}
	childDepth := depth + 1
	if !block {
		childDepth = 0
	}
	r.nodes(hw, n.Children, childDepth)
	if block {
		hw.pad(depth)
	}
	hw.raw("</" + n.Tag + ">")
	hw.newline()
}

func hasElementChild(n *ui.Node) bool {
	for _, c := range n.Children {
		if c != nil && c.Kind != ui.KindText {
			return true
		}
	}
	return false
}

// attributes writes props in name order, evaluating reactive values.
func (r *Renderer) attributes(hw *htmlWriter, props ui.Props) {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := props[name]
		if fn, ok := ui.Reactive(value); ok {
			value = fn()
		}
		if name == "style" {
			value = styleText(value)
		}
		if b, ok := value.(bool); ok && isBooleanAttr(name) {
			hw.flag(name, b)
			continue
		}
		if value == nil || value == false {
			continue
		}
		hw.attr(name, stringify(value))
	}
}

// styleText flattens a style mapping into "name:value;..." declarations.
// Other values pass through unchanged.
func styleText(value any) any {
	style, ok := value.(map[string]any)
	if !ok {
		return value
	}
	names := make([]string, 0, len(style))
	for name := range style {
		names = append(names, name)
	}
	sort.Strings(names)

	var decls []string
	for _, name := range names {
		v := style[name]
		if fn, ok := ui.Reactive(v); ok {
			v = fn()
		}
		if v != nil {
			decls = append(decls, name+":"+stringify(v))
		}
	}
	if len(decls) == 0 {
		return nil
	}
	return strings.Join(decls, ";")
}

// stringify converts text and attribute values to strings.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
