package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

var colorEnabled = true

// SetColor turns ANSI colors in Format on or off. The CLI turns them off
// when stderr is not a terminal.
func SetColor(enabled bool) {
	colorEnabled = enabled
}

func paint(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + ansiReset
}

// Format renders the error for a terminal: a headline, the path and
// component, wrapped detail, the cause and the hint.
func (e *RxError) Format() string {
	var b strings.Builder

	head := "ERROR"
	if e.Code != "" {
		head += " " + e.Code
	}
	fmt.Fprintf(&b, "\n%s %s\n\n", paint(ansiRed+ansiBold, head+":"), e.Message)

	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "  %s %s\n", paint(ansiGray, label+":"), paint(ansiCyan, value))
		}
	}
	field("path", e.Path)
	field("component", e.Component)
	if e.Path != "" || e.Component != "" {
		b.WriteString("\n")
	}

	if lines := wrapText(e.Detail, 70); len(lines) > 0 {
		for _, line := range lines {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s %s\n\n", paint(ansiGray, "cause:"), e.Wrapped)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n", paint(ansiCyan, "Hint:"), e.Suggestion)
	}
	return b.String()
}

// FormatCompact returns the single-line form shown inside inline error
// nodes.
func (e *RxError) FormatCompact() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code + ": ")
	}
	b.WriteString(e.Message)
	if e.Component != "" {
		b.WriteString(" in " + e.Component)
	}
	if e.Wrapped != nil {
		b.WriteString(": " + e.Wrapped.Error())
	}
	return b.String()
}

type jsonError struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Path       string   `json:"path,omitempty"`
	Component  string   `json:"component,omitempty"`
	Cause      string   `json:"cause,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// MarshalJSON encodes the error as a flat object; the wrapped error is
// reduced to its message under "cause".
func (e *RxError) MarshalJSON() ([]byte, error) {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Path:       e.Path,
		Component:  e.Component,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	return json.Marshal(out)
}

// LogValue groups the error's fields when it is logged with slog.
func (e *RxError) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("code", e.Code), slog.String("message", e.Message)}
	if e.Path != "" {
		attrs = append(attrs, slog.String("path", e.Path))
	}
	if e.Component != "" {
		attrs = append(attrs, slog.String("component", e.Component))
	}
	if e.Wrapped != nil {
		attrs = append(attrs, slog.String("cause", e.Wrapped.Error()))
	}
	return slog.GroupValue(attrs...)
}

// Fprint writes err to w, using Format when err wraps an *RxError.
func Fprint(w io.Writer, err error) {
	var re *RxError
	if errors.As(err, &re) {
		io.WriteString(w, re.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint(ansiRed+ansiBold, "ERROR:"), err)
}

// wrapText splits text into lines of at most width bytes at word
// boundaries. A single longer word gets its own line.
func wrapText(text string, width int) []string {
	var (
		lines []string
		line  string
	)
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > width:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
