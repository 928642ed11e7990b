package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/vango-dev/rx/pkg/ui"
)

func TestRenderText(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	html, err := renderer.RenderToString(ui.Text("Hello, World!"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if html != "Hello, World!" {
		t.Errorf("got %q, want %q", html, "Hello, World!")
	}
}

func TestRenderTextEscaping(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	html, err := renderer.RenderToString(ui.Text("<script>alert('xss')</script>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("HTML should be escaped, got %q", html)
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Errorf("should contain escaped script tag, got %q", html)
	}
}

func TestRenderElement(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	node := ui.El("div", ui.Class("container"),
		ui.El("h1", "Title"),
		ui.El("p", ui.Text("Content")),
	)
	html, err := renderer.RenderToString(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<div class="container"><h1>Title</h1><p>Content</p></div>`
	if html != want {
		t.Errorf("got %q, want %q", html, want)
	}
}

func TestRenderVoidAndBooleanAttrs(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	tests := []struct {
		name string
		node *ui.Node
		want string
	}{
		{
			name: "input",
			node: ui.El("input", ui.Prop("type", "text"), ui.Prop("name", "email")),
			want: `<input name="email" type="text">`,
		},
		{
			name: "br",
			node: ui.El("br"),
			want: `<br>`,
		},
		{
			name: "disabled true",
			node: ui.El("button", ui.Prop("disabled", true), "Go"),
			want: `<button disabled>Go</button>`,
		},
		{
			name: "disabled false",
			node: ui.El("button", ui.Prop("disabled", false), "Go"),
			want: `<button>Go</button>`,
		},
		{
			name: "nil attribute",
			node: ui.El("span", ui.Prop("title", nil)),
			want: `<span></span>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := renderer.RenderToString(tt.node)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if html != tt.want {
				t.Errorf("got %q, want %q", html, tt.want)
			}
		})
	}
}

func TestRenderReactiveValuesOnce(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})
	calls := 0

	node := ui.El("p",
		ui.Class(func() any { calls++; return "live" }),
		ui.Style("color", func() any { return "red" }),
		ui.Style("width", "1px"),
		ui.TextFn(func() any { return 42 }),
		ui.Dynamic(func() any { return []*ui.Node{ui.El("b", "x")} }),
	)
	html, err := renderer.RenderToString(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<p class="live" style="color:red;width:1px">42<b>x</b></p>`
	if html != want {
		t.Errorf("got %q, want %q", html, want)
	}
	if calls != 1 {
		t.Errorf("expected reactive value evaluated once, got %d", calls)
	}
}

func TestRenderAttributeEscaping(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	html, err := renderer.RenderToString(ui.El("a", ui.Prop("title", `"quoted" <b>`)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if html != `<a title="&quot;quoted&quot; &lt;b&gt;"></a>` {
		t.Errorf("got %q", html)
	}
}

func TestRenderFragment(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	html, err := renderer.RenderToString(ui.Fragment(ui.El("li", "a"), ui.El("li", "b")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if html != "<li>a</li><li>b</li>" {
		t.Errorf("got %q", html)
	}
}

func TestRenderComponent(t *testing.T) {
	node := ui.Component("Greeting", ui.Props{"name": "Ada"})

	if _, err := NewRenderer(RendererConfig{}).RenderToString(node); !errors.Is(err, ErrUnresolvedComponent) {
		t.Errorf("expected ErrUnresolvedComponent, got %v", err)
	}

	renderer := NewRenderer(RendererConfig{
		Resolve: func(name string, props ui.Props) (*ui.Node, error) {
			return ui.El("span", ui.Textf("Hello, %v", props["name"])), nil
		},
	})
	html, err := renderer.RenderToString(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if html != "<span>Hello, Ada</span>" {
		t.Errorf("got %q", html)
	}
}

func TestRenderPretty(t *testing.T) {
	renderer := NewRenderer(RendererConfig{Pretty: true})

	var buf bytes.Buffer
	err := renderer.RenderToWriter(&buf, ui.El("div", ui.El("p", "x")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := buf.String()
	if !strings.HasPrefix(html, "<div>\n  <p>") {
		t.Errorf("expected indented child, got %q", html)
	}
	if !strings.HasSuffix(html, "</div>\n") {
		t.Errorf("expected trailing newline, got %q", html)
	}
}
