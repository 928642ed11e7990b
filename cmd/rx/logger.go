package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/vango-dev/rx/internal/config"
)

// newLogger builds the process logger from log.level and log.format.
// The auto format writes text to terminals and JSON everywhere else.
func newLogger(cfg *config.Config, out *os.File) *slog.Logger {
	return slog.New(newHandler(cfg, out, isTerminal(out)))
}

func newHandler(cfg *config.Config, w io.Writer, terminal bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}
	format := cfg.Log.Format
	if format == "" || format == "auto" {
		format = "json"
		if terminal {
			format = "text"
		}
	}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
