package main

import (
	"log/slog"

	"github.com/vango-dev/rx"
	"github.com/vango-dev/rx/internal/config"
	"github.com/vango-dev/rx/pkg/persist"
	"github.com/vango-dev/rx/pkg/telemetry"
	"github.com/vango-dev/rx/pkg/ui"
)

// newRuntime builds a demo runtime seeded with initial.
func newRuntime(cfg *config.Config, logger *slog.Logger, metrics *telemetry.Metrics, initial map[string]any) *rx.Runtime {
	rt := rx.New(rx.Config{
		Logger:       logger,
		DevMode:      cfg.Debug,
		InitialState: initial,
		Budget:       cfg.Runtime.Budget,
		Metrics:      metrics,
		Placeholder:  placeholder(cfg),
	})
	registerDemo(rt)
	return rt
}

// initialState is runtime.initialState from rx.yaml, or the demo state.
func initialState(cfg *config.Config) map[string]any {
	if len(cfg.InitialState) > 0 {
		return cfg.InitialState
	}
	return demoState()
}

func placeholder(cfg *config.Config) *ui.Placeholder {
	pc := cfg.Runtime.Placeholder
	if pc.Text == "" && pc.Class == "" {
		return nil
	}
	p := *ui.DefaultPlaceholder
	if pc.Text != "" {
		p.Text = pc.Text
	}
	if pc.Class != "" {
		p.Class = pc.Class
	}
	return &p
}

// openBackend opens the configured snapshot backend. The returned close
// function is never nil.
func openBackend(cfg *config.Config) (persist.Backend, func() error, error) {
	nop := func() error { return nil }
	switch cfg.Persist.Backend {
	case config.BackendBolt:
		b, err := persist.OpenBolt(cfg.BoltPath())
		if err != nil {
			return nil, nop, err
		}
		return b, b.Close, nil
	case config.BackendS3:
		s3cfg := cfg.Persist.S3
		client := persist.NewS3Client(s3cfg.Region, s3cfg.Endpoint, s3cfg.AccessKey, s3cfg.SecretKey)
		return persist.NewS3Backend(client, s3cfg.Bucket, s3cfg.Prefix), nop, nil
	default:
		return persist.NewMemoryBackend(), nop, nil
	}
}
