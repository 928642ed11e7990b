package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vango-dev/rx/pkg/ui"
)

// StateScriptID is the id of the JSON state payload script.
const StateScriptID = "rx-state"

// PageData describes a complete HTML document.
type PageData struct {
	Body  *ui.Node
	Title string

	Meta  []MetaTag
	Links []LinkTag

	// Scripts marked Defer or Async go in the head; the rest close the body.
	Scripts []ScriptTag

	// Styles are inline <style> blocks; StyleSheets are stylesheet hrefs.
	Styles      []string
	StyleSheets []string

	// State, if non-nil, is embedded as a JSON payload in a
	// <script type="application/json" id="rx-state"> element after the body
	// content.
	State any

	// Lang defaults to "en".
	Lang string
}

// MetaTag is a <meta> element. Empty fields are omitted.
type MetaTag struct {
	Name      string
	Content   string
	Property  string
	HTTPEquiv string
	Charset   string
}

// LinkTag is a <link> element. Empty fields are omitted.
type LinkTag struct {
	Rel         string
	Href        string
	Type        string
	Sizes       string
	CrossOrigin string
	Media       string
}

// ScriptTag is a <script> element.
type ScriptTag struct {
	Src    string
	Type   string
	Defer  bool
	Async  bool
	Module bool // type="module", overrides Type
	Inline string
}

func (s ScriptTag) inHead() bool { return s.Defer || s.Async }

// RenderPage renders a complete HTML document to w.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	hw := r.writer(w)
	hw.raw("<!DOCTYPE html>\n<html")
	hw.attr("lang", lang)
	hw.raw(">\n<head>\n")
	writeHead(hw, page)
	hw.raw("</head>\n<body>\n")

	r.node(hw, page.Body, 0)
	if hw.err != nil {
		return hw.err
	}
	if err := r.RenderState(w, page.State); err != nil {
		return err
	}
	for _, s := range page.Scripts {
		if !s.inHead() {
			writeScript(hw, s)
		}
	}
	hw.raw("</body>\n</html>\n")
	return hw.err
}

func writeHead(hw *htmlWriter, page PageData) {
	hw.raw(`  <meta charset="utf-8">` + "\n")
	hw.raw(`  <meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
	if page.Title != "" {
		hw.raw("  <title>")
		hw.text(page.Title)
		hw.raw("</title>\n")
	}

	for _, m := range page.Meta {
		hw.raw("  <meta")
		hw.optAttr("charset", m.Charset)
		hw.optAttr("name", m.Name)
		hw.optAttr("property", m.Property)
		hw.optAttr("http-equiv", m.HTTPEquiv)
		hw.optAttr("content", m.Content)
		hw.raw(">\n")
	}

	links := append([]LinkTag(nil), page.Links...)
	for _, href := range page.StyleSheets {
		links = append(links, LinkTag{Rel: "stylesheet", Href: href})
	}
	for _, l := range links {
		hw.raw("  <link")
		hw.optAttr("rel", l.Rel)
		hw.optAttr("href", l.Href)
		hw.optAttr("type", l.Type)
		hw.optAttr("sizes", l.Sizes)
		hw.optAttr("crossorigin", l.CrossOrigin)
		hw.optAttr("media", l.Media)
		hw.raw(">\n")
	}

	for _, css := range page.Styles {
		hw.raw("  <style>" + css + "</style>\n")
	}
	for _, s := range page.Scripts {
		if s.inHead() {
			writeScript(hw, s)
		}
	}
}

func writeScript(hw *htmlWriter, s ScriptTag) {
	hw.raw("  <script")
	hw.optAttr("src", s.Src)
	if s.Module {
		hw.attr("type", "module")
	} else {
		hw.optAttr("type", s.Type)
	}
	hw.flag("defer", s.Defer)
	hw.flag("async", s.Async)
	hw.raw(">" + s.Inline + "</script>\n")
}

// RenderState writes state as a JSON payload script. A nil state writes
// nothing. json.Marshal escapes <, > and &, so the payload cannot close the
// script.
func (r *Renderer) RenderState(w io.Writer, state any) error {
	if state == nil {
		return nil
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("rx: marshal page state: %w", err)
	}
	hw := r.writer(w)
	hw.raw(`  <script type="application/json"`)
	hw.attr("id", StateScriptID)
	hw.raw(">" + string(payload) + "</script>\n")
	return hw.err
}
