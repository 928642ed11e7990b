package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vango-dev/rx/pkg/ui"
)

func TestRenderPage(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	page := PageData{
		Body:  ui.El("div", "Hello, World!"),
		Title: "Test Page",
	}

	var buf bytes.Buffer
	if err := renderer.RenderPage(&buf, page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<html lang="en">`,
		`<meta charset="utf-8">`,
		"<title>Test Page</title>",
		"<body>",
		"<div>Hello, World!</div>",
		"</html>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in %q", want, html)
		}
	}
	if strings.Contains(html, StateScriptID) {
		t.Errorf("expected no state payload, got %q", html)
	}
}

func TestRenderPageState(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	page := PageData{
		Body:  ui.El("main"),
		State: map[string]any{"msg": "</script><b>"},
	}

	var buf bytes.Buffer
	if err := renderer.RenderPage(&buf, page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := buf.String()

	if !strings.Contains(html, `<script type="application/json" id="rx-state">`) {
		t.Errorf("expected state script, got %q", html)
	}
	if strings.Contains(html, "</script><b>") {
		t.Errorf("state payload must be escaped, got %q", html)
	}
	if !strings.Contains(html, `\u003c/script\u003e`) {
		t.Errorf("expected JSON escaping, got %q", html)
	}
}

func TestRenderPageHeadTags(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	page := PageData{
		Lang:        "fr",
		Meta:        []MetaTag{{Name: "description", Content: "demo"}},
		Links:       []LinkTag{{Rel: "icon", Href: "/favicon.ico"}},
		StyleSheets: []string{"/app.css"},
		Scripts: []ScriptTag{
			{Src: "/head.js", Defer: true},
			{Inline: "console.log(1)"},
		},
	}

	var buf bytes.Buffer
	if err := renderer.RenderPage(&buf, page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		`<html lang="fr">`,
		`<meta name="description" content="demo">`,
		`<link rel="icon" href="/favicon.ico">`,
		`<link rel="stylesheet" href="/app.css">`,
		`<script src="/head.js" defer></script>`,
		`<script>console.log(1)</script>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in %q", want, html)
		}
	}

	head := html[:strings.Index(html, "</head>")]
	if strings.Contains(head, "console.log") {
		t.Error("inline scripts belong in the body")
	}
}
