package persist

import (
	"context"
	"log/slog"
	"time"

	rxerrors "github.com/vango-dev/rx/internal/errors"
	"github.com/vango-dev/rx/pkg/component"
	"github.com/vango-dev/rx/pkg/scheduler"
	"github.com/vango-dev/rx/pkg/state"
)

// Snapshotter saves and restores a store through a Backend.
//
// Save and Load touch the store and must be called on the store's loop.
// SaveAsync encodes on the loop and writes on another goroutine.
type Snapshotter struct {
	store   *state.Store
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// NewSnapshotter creates a snapshotter for store.
func NewSnapshotter(store *state.Store, backend Backend) *Snapshotter {
	return &Snapshotter{
		store:   store,
		backend: backend,
		logger:  store.Logger(),
		now:     time.Now,
	}
}

// Backend returns the backend.
func (s *Snapshotter) Backend() Backend {
	return s.backend
}

// encode snapshots the shared tree. Component-private state belongs to
// live instances and is left out.
func (s *Snapshotter) encode() ([]byte, error) {
	tree := s.store.Snapshot()
	delete(tree, component.LocalPrefix)
	return Encode(tree, s.now())
}

// Save writes the current tree under name.
func (s *Snapshotter) Save(ctx context.Context, name string) error {
	data, err := s.encode()
	if err != nil {
		return rxerrors.FromError(err, rxerrors.CodePersistence)
	}
	if err := s.backend.Save(ctx, name, data); err != nil {
		return rxerrors.FromError(err, rxerrors.CodePersistence)
	}
	s.logger.Debug("state snapshot saved",
		slog.String("name", name),
		slog.Int("bytes", len(data)))
	return nil
}

// SaveAsync encodes the current tree and writes it on another goroutine.
// The future settles on the loop with the number of bytes written.
func (s *Snapshotter) SaveAsync(ctx context.Context, name string) *scheduler.Future {
	loop := s.store.Loop()
	data, err := s.encode()
	if err != nil {
		return loop.Rejected(rxerrors.FromError(err, rxerrors.CodePersistence))
	}
	return loop.Go(ctx, func(ctx context.Context) (any, error) {
		if err := s.backend.Save(ctx, name, data); err != nil {
			return nil, rxerrors.FromError(err, rxerrors.CodePersistence)
		}
		return len(data), nil
	})
}

// Load replaces the store tree with the snapshot stored under name.
// Subscribers are notified as by Store.Restore. Returns the time the
// snapshot was taken.
func (s *Snapshotter) Load(ctx context.Context, name string) (time.Time, error) {
	data, err := s.backend.Load(ctx, name)
	if err != nil {
		return time.Time{}, rxerrors.FromError(err, rxerrors.CodePersistence)
	}
	snap, err := Decode(data)
	if err != nil {
		return time.Time{}, rxerrors.FromError(err, rxerrors.CodePersistence)
	}
	// Private state in the snapshot is ignored; the private state of
	// instances alive now is kept.
	tree := snap.State
	if tree == nil {
		tree = map[string]any{}
	}
	delete(tree, component.LocalPrefix)
	if local, ok := s.store.GetUntracked(component.LocalPrefix, nil).(map[string]any); ok {
		tree[component.LocalPrefix] = local
	}
	s.store.Restore(tree)
	s.logger.Debug("state snapshot loaded",
		slog.String("name", name),
		slog.Time("taken", snap.Taken))
	return snap.Taken, nil
}

// AutoSave saves the tree under name after writes below any of paths,
// at most once per delay. Writes during the delay are coalesced. The
// returned function stops watching.
func (s *Snapshotter) AutoSave(ctx context.Context, name string, delay time.Duration, paths ...string) (stop func()) {
	loop := s.store.Loop()
	var (
		cancel  func()
		stopped bool
	)
	trigger := func(state.Change) {
		if cancel != nil || stopped {
			return
		}
		cancel = loop.After(delay, func() {
			cancel = nil
			if stopped {
				return
			}
			s.SaveAsync(ctx, name).Then(func(_ any, err error) {
				if err != nil {
					s.logger.Error("state autosave failed",
						slog.String("code", rxerrors.CodePersistence),
						slog.String("name", name),
						slog.Any("error", err))
				}
			})
		})
	}

	unsubs := make([]func(), 0, len(paths))
	for _, p := range paths {
		unsubs = append(unsubs, s.store.Subscribe(p, trigger, true))
	}
	return func() {
		stopped = true
		if cancel != nil {
			cancel()
			cancel = nil
		}
		for _, u := range unsubs {
			u()
		}
	}
}
