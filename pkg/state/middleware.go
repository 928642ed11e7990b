package state

import (
	"fmt"
	"log/slog"

	rxerrors "github.com/vango-dev/rx/internal/errors"
)

// Write describes a pending write as seen by middleware.
type Write struct {
	// Path is the target path.
	Path string

	// Old is the value currently stored at Path (nil if missing).
	Old any

	// New is the value produced by the previous middleware, or the value
	// passed to Set for the first one.
	New any

	// Meta is the caller-supplied context passed to SetWith.
	Meta any

	// Store is the store being written. Middleware may read from it; reads
	// are never tracked.
	Store *Store
}

// Middleware transforms a value on its way into the store.
//
// Returning w.New passes the value through unchanged. A returned error (or a
// panic) is logged and the chain continues with the value this middleware
// received.
type Middleware interface {
	Transform(w Write) (any, error)
}

// MiddlewareFunc adapts a function to the Middleware interface.
type MiddlewareFunc func(w Write) (any, error)

// Transform implements Middleware.
func (f MiddlewareFunc) Transform(w Write) (any, error) {
	return f(w)
}

// Use appends middleware to the store's pipeline.
func (s *Store) Use(mw ...Middleware) {
	s.middleware = append(s.middleware, mw...)
}

// applyMiddleware runs the pipeline for one write.
func (s *Store) applyMiddleware(path string, old, value, meta any) any {
	if len(s.middleware) == 0 {
		return value
	}
	current := value
	prev := s.tracker.current
	s.tracker.current = nil
	defer func() { s.tracker.current = prev }()

	for i, mw := range s.middleware {
		next, err := s.runMiddleware(mw, Write{
			Path:  path,
			Old:   old,
			New:   current,
			Meta:  meta,
			Store: s,
		})
		if err != nil {
			s.logger.Error("state middleware failed",
				slog.String("code", rxerrors.CodeMiddleware),
				slog.String("path", path),
				slog.Int("index", i),
				slog.Any("error", err))
			s.observer.MiddlewareFailed(path)
			continue
		}
		current = next
	}
	return current
}

func (s *Store) runMiddleware(mw Middleware, w Write) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rxerrors.FromPanic(r, rxerrors.CodeMiddleware)
		}
	}()
	out, err = mw.Transform(w)
	if err != nil {
		err = fmt.Errorf("middleware: %w", err)
	}
	return out, err
}
