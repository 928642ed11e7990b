package hydrate

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/rx/pkg/ui"
)

// CompleteHeader reports whether a served page reached quiescence.
const CompleteHeader = "X-Rx-Complete"

// PageFunc returns the hydrator and root description for a request.
// Returning a fresh Hydrator per request lets passes run in parallel.
type PageFunc func(r *http.Request) (*Hydrator, *ui.Node, error)

// Static serves root from h for every request.
func Static(h *Hydrator, root func() *ui.Node) PageFunc {
	return func(*http.Request) (*Hydrator, *ui.Node, error) {
		return h, root(), nil
	}
}

// Handler serves hydrated pages as complete HTML documents.
func Handler(fn PageFunc) http.Handler {
	return serve(fn, (*Hydrator).Write)
}

// FragmentHandler serves the hydrated body and state payload only.
func FragmentHandler(fn PageFunc) http.Handler {
	return serve(fn, (*Hydrator).WriteFragment)
}

// Routes mounts Handler at / and FragmentHandler at /fragment.
func Routes(fn PageFunc) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", Handler(fn).ServeHTTP)
	r.Get("/fragment", FragmentHandler(fn).ServeHTTP)
	return r
}

func serve(fn PageFunc, write func(*Hydrator, io.Writer, *Page) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, root, err := fn(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		page, err := h.Hydrate(r.Context(), root)
		if err != nil {
			h.logger.Error("hydration failed", "path", r.URL.Path, "error", err)
			http.Error(w, "hydration failed", http.StatusServiceUnavailable)
			return
		}

		var buf bytes.Buffer
		if err := write(h, &buf, page); err != nil {
			h.logger.Error("page render failed", "path", r.URL.Path, "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if page.Complete {
			w.Header().Set(CompleteHeader, "true")
		} else {
			w.Header().Set(CompleteHeader, "false")
		}
		_, _ = buf.WriteTo(w)
	})
}

// Component adapts a hydration pass to templ, for embedding a live tree in
// a templ layout. It writes the same output as WriteFragment.
func Component(h *Hydrator, root *ui.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		page, err := h.Hydrate(ctx, root)
		if err != nil {
			return err
		}
		return h.WriteFragment(w, page)
	})
}
