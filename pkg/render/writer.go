package render

import (
	"io"
	"strings"
)

// htmlWriter writes markup and keeps the first error. Once an error is
// recorded every later write is a no-op, so callers check err once.
type htmlWriter struct {
	w      io.Writer
	err    error
	pretty bool
	indent string
}

func (hw *htmlWriter) raw(s string) {
	if hw.err != nil || s == "" {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

func (hw *htmlWriter) text(s string) {
	hw.raw(escapeText(s))
}

// attr writes ` name="value"`.
func (hw *htmlWriter) attr(name, value string) {
	hw.raw(" " + name + `="` + escapeAttr(value) + `"`)
}

// optAttr writes the attribute only when value is non-empty.
func (hw *htmlWriter) optAttr(name, value string) {
	if value != "" {
		hw.attr(name, value)
	}
}

// flag writes a bare attribute name when on.
func (hw *htmlWriter) flag(name string, on bool) {
	if on {
		hw.raw(" " + name)
	}
}

func (hw *htmlWriter) fail(err error) {
	if hw.err == nil {
		hw.err = err
	}
}

// newline and pad only write in pretty mode.
func (hw *htmlWriter) newline() {
	if hw.pretty {
		hw.raw("\n")
	}
}

func (hw *htmlWriter) pad(depth int) {
	if hw.pretty && depth > 0 {
		hw.raw(strings.Repeat(hw.indent, depth))
	}
}
