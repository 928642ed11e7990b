package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vango-dev/rx/pkg/state"
)

// ErrReadOnly is logged when a write to a read-only path is refused.
var ErrReadOnly = errors.New("rx: path is read-only")

// Logging logs every write at level through the store's logger.
func Logging(level slog.Level) state.Middleware {
	return state.MiddlewareFunc(func(w state.Write) (any, error) {
		attrs := []slog.Attr{
			slog.String("path", w.Path),
			slog.Any("old", w.Old),
			slog.Any("new", w.New),
		}
		if w.Meta != nil {
			attrs = append(attrs, slog.Any("meta", w.Meta))
		}
		w.Store.Logger().LogAttrs(context.Background(), level, "state write", attrs...)
		return w.New, nil
	})
}

// ReadOnly refuses writes to the given paths and everything below them.
// A refused write keeps the stored value, so subscribers are not notified.
// Paths that do not exist yet may still be created once.
func ReadOnly(prefixes ...string) state.Middleware {
	return state.MiddlewareFunc(func(w state.Write) (any, error) {
		for _, prefix := range prefixes {
			if w.Path != prefix && !state.IsDescendant(w.Path, prefix) {
				continue
			}
			if !w.Store.Has(w.Path) {
				return w.New, nil
			}
			w.Store.Logger().Warn("state write refused",
				slog.String("path", w.Path),
				slog.Any("error", ErrReadOnly))
			return w.Old, nil
		}
		return w.New, nil
	})
}

// Coerce converts values written to path with fn. A conversion error is
// reported and the unconverted value continues down the chain.
func Coerce(path string, fn func(v any) (any, error)) state.Middleware {
	return state.MiddlewareFunc(func(w state.Write) (any, error) {
		if w.Path != path {
			return w.New, nil
		}
		v, err := fn(w.New)
		if err != nil {
			return w.New, fmt.Errorf("coerce %s: %w", path, err)
		}
		return v, nil
	})
}

// ToInt converts numbers and numeric strings to int.
func ToInt(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case string:
		return strconv.Atoi(x)
	default:
		return nil, fmt.Errorf("cannot convert %T to int", v)
	}
}

// ToString converts any value to its default string form.
func ToString(v any) (any, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}
