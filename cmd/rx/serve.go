package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/rx"
	"github.com/vango-dev/rx/internal/config"
	"github.com/vango-dev/rx/pkg/component"
	"github.com/vango-dev/rx/pkg/devtools"
	"github.com/vango-dev/rx/pkg/hydrate"
	"github.com/vango-dev/rx/pkg/persist"
	"github.com/vango-dev/rx/pkg/state"
	"github.com/vango-dev/rx/pkg/telemetry"
	"github.com/vango-dev/rx/pkg/ui"
)

func serveCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo application",
		Long: `Serve the demo application over HTTP.

Routes:
  /              hydrated page (/fragment for the body only)
  /state         live state as JSON (/state/<path> for one value)
  /metrics       Prometheus metrics (metrics.enabled)
  /devtools/ws   live state inspector (server.devtools)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger := newLogger(cfg, os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := newServer(ctx, cfg, logger)
			if err != nil {
				return err
			}
			return srv.run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides server.addr)")

	return cmd
}

// server is the demo HTTP server. live holds the shared state; every page
// request hydrates a fresh runtime seeded with a copy of it.
type server struct {
	cfg      *config.Config
	logger   *slog.Logger
	live     *rx.Runtime
	metrics  *telemetry.Metrics
	registry *prometheus.Registry

	snapshots    *persist.Snapshotter
	stopAutoSave func()
	closeBackend func() error
}

func newServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server, error) {
	s := &server{
		cfg:          cfg,
		logger:       logger,
		stopAutoSave: func() {},
		closeBackend: func() error { return nil },
	}
	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		s.metrics = telemetry.NewMetrics(
			telemetry.WithRegistry(s.registry),
			telemetry.WithNamespace(cfg.Metrics.Namespace),
		)
	}
	s.live = newRuntime(cfg, logger, s.metrics, initialState(cfg))

	// The live loop is not running yet, so the store may be touched here.
	if cfg.Persist.Backend != config.BackendMemory {
		backend, closeFn, err := openBackend(cfg)
		if err != nil {
			return nil, err
		}
		s.closeBackend = closeFn
		s.snapshots = persist.NewSnapshotter(s.live.Store(), backend)

		taken, err := s.snapshots.Load(ctx, cfg.Persist.Name)
		switch {
		case err == nil:
			logger.Info("state restored", "snapshot", cfg.Persist.Name, "taken", taken)
		case errors.Is(err, persist.ErrNotFound):
			logger.Info("no snapshot yet", "snapshot", cfg.Persist.Name)
		default:
			closeFn()
			return nil, err
		}

		if delay := cfg.AutoSaveDelay(); delay > 0 {
			tree := s.live.Store().Snapshot()
			paths := make([]string, 0, len(tree))
			for k := range tree {
				paths = append(paths, k)
			}
			sort.Strings(paths)
			s.stopAutoSave = s.snapshots.AutoSave(ctx, cfg.Persist.Name, delay, paths...)
		}
	}
	return s, nil
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/state", s.handleState)
	r.Get("/state/*", s.handleState)
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	if s.cfg.Server.Devtools {
		r.Handle("/devtools/ws", devtools.New(devtools.Config{
			Store:       s.live.Store(),
			Logger:      s.logger,
			AllowWrites: s.cfg.Debug,
		}))
	}
	r.Mount("/", hydrate.Routes(s.page))
	return r
}

func (s *server) run(ctx context.Context) error {
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		s.live.Loop().Run(loopCtx)
	}()

	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	success("Serving %s on http://localhost%s", s.cfg.Name, s.cfg.Server.Addr)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", "error", err)
	}

	s.onLoop(shutdownCtx, s.stopAutoSave)
	stopLoop()
	<-loopDone

	if s.snapshots != nil {
		if err := s.snapshots.Save(shutdownCtx, s.cfg.Persist.Name); err != nil {
			s.logger.Error("final snapshot failed", "error", err)
		}
	}
	if err := s.closeBackend(); err != nil {
		s.logger.Warn("closing snapshot backend", "error", err)
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

// onLoop runs fn on the live loop and waits for it.
func (s *server) onLoop(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	s.live.Loop().Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// page seeds a request runtime from the live state.
func (s *server) page(r *http.Request) (*hydrate.Hydrator, *ui.Node, error) {
	var tree map[string]any
	if err := s.onLoop(r.Context(), func() { tree = s.live.Store().Snapshot() }); err != nil {
		return nil, nil, err
	}
	delete(tree, component.LocalPrefix)
	rt := newRuntime(s.cfg, s.logger, s.metrics, tree)
	h, err := rt.Hydrator(hydrate.Config{Title: s.cfg.Name})
	if err != nil {
		return nil, nil, err
	}
	return h, demoPage(rt), nil
}

func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if path != "" && !state.ValidPath(path) {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	var (
		value any
		found = true
	)
	err := s.onLoop(r.Context(), func() {
		store := s.live.Store()
		if path == "" {
			value = store.Snapshot()
			return
		}
		found = store.Has(path)
		value = state.Copy(store.GetUntracked(path, nil))
	})
	if err != nil {
		http.Error(w, "runtime busy", http.StatusServiceUnavailable)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		s.logger.Debug("state response", "error", err)
	}
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
