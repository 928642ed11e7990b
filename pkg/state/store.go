package state

import (
	"log/slog"
	"sort"

	rxerrors "github.com/vango-dev/rx/internal/errors"
	"github.com/vango-dev/rx/pkg/scheduler"
)

// Config configures a Store.
type Config struct {
	// Initial is the initial state tree. It is deep-copied; Reset restores it.
	Initial map[string]any

	// Middleware is the initial write pipeline, applied in order.
	Middleware []Middleware

	// Loop is the scheduler the store belongs to. Async batches settle on it.
	// If nil, a new loop is created.
	Loop *scheduler.Loop

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Observer receives store events. If nil, events are discarded.
	Observer Observer
}

// Store is a path-addressed state container with dependency tracking,
// hierarchical notification and transactional batching.
type Store struct {
	root    map[string]any
	initial map[string]any

	tracker    *Tracker
	reg        *registry
	middleware []Middleware

	// batch is non-nil while a batch is open.
	batch      *batchQueue
	afterBatch []func()

	// inFlight counts running notifications per path.
	inFlight map[string]int

	loop     *scheduler.Loop
	logger   *slog.Logger
	observer Observer
}

// New creates a store from cfg.
func New(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	loop := cfg.Loop
	if loop == nil {
		loop = scheduler.NewLoop(scheduler.LoopConfig{Logger: logger})
	}

	initial := copyTree(cfg.Initial)
	return &Store{
		root:       copyTree(initial),
		initial:    initial,
		tracker:    &Tracker{},
		reg:        newRegistry(),
		middleware: append([]Middleware(nil), cfg.Middleware...),
		inFlight:   make(map[string]int),
		loop:       loop,
		logger:     logger,
		observer:   observer,
	}
}

// Tracker returns the store's dependency tracker.
func (s *Store) Tracker() *Tracker {
	return s.tracker
}

// Loop returns the scheduler loop the store belongs to.
func (s *Store) Loop() *scheduler.Loop {
	return s.loop
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// =============================================================================
// Reads
// =============================================================================

// Get returns the value at path, or def if any segment is missing or the
// path is invalid. If a DependencySet is active, path is recorded in it.
func (s *Store) Get(path string, def any) any {
	if !ValidPath(path) {
		s.logInvalid("get", path)
		return def
	}
	s.tracker.Record(path)
	if v, ok := s.lookup(path); ok {
		return v
	}
	return def
}

// GetUntracked is Get without dependency recording.
func (s *Store) GetUntracked(path string, def any) any {
	if !ValidPath(path) {
		s.logInvalid("get", path)
		return def
	}
	if v, ok := s.lookup(path); ok {
		return v
	}
	return def
}

// Has reports whether path exists. The read is not tracked.
func (s *Store) Has(path string) bool {
	if !ValidPath(path) {
		return false
	}
	_, ok := s.lookup(path)
	return ok
}

// Keys returns the sorted child keys of the mapping at path. The read is
// tracked like Get. Non-mapping and missing values have no keys.
func (s *Store) Keys(path string) []string {
	m, ok := s.Get(path, nil).(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) lookup(path string) (any, bool) {
	var cur any = s.root
	for _, seg := range splitPath(path) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// =============================================================================
// Writes
// =============================================================================

// Set writes value at path. See SetWith.
func (s *Store) Set(path string, value any) {
	s.SetWith(path, value, nil)
}

// SetWith writes value at path, passing meta to middleware.
//
// Invalid paths and writes to a path whose own notification is running are
// dropped and logged. Inside a batch the write is queued. Otherwise the
// middleware pipeline runs, a deep-equal value is a no-op, and a changed
// value is stored and notified.
func (s *Store) SetWith(path string, value, meta any) {
	s.write(path, value, meta, false)
}

// Update writes fn(current) at path. The current value is read untracked.
func (s *Store) Update(path string, fn func(old any) any) {
	s.Set(path, fn(s.GetUntracked(path, nil)))
}

// Delete removes the key at path and notifies subscribers if it existed.
func (s *Store) Delete(path string) {
	s.write(path, nil, nil, true)
}

func (s *Store) write(path string, value, meta any, del bool) {
	if !ValidPath(path) {
		s.logInvalid("set", path)
		s.observer.WriteDropped(path, ErrInvalidPath)
		return
	}
	if s.inFlight[path] > 0 {
		s.logger.Warn("state write dropped: circular update",
			slog.String("code", rxerrors.CodeCircularUpdate),
			slog.String("path", path))
		s.observer.WriteDropped(path, ErrCircularUpdate)
		return
	}
	if s.batch != nil {
		s.batch.enqueue(path, value, meta, del)
		return
	}
	if s.apply(path, value, meta, del) {
		s.notify([]string{path})
	}
}

// apply runs middleware and stores the result. Reports whether the tree changed.
func (s *Store) apply(path string, value, meta any, del bool) bool {
	old, exists := s.lookup(path)
	if del {
		if !exists {
			return false
		}
		s.remove(path)
		s.observer.WriteApplied(path)
		return true
	}

	next := s.applyMiddleware(path, old, value, meta)
	if exists && Equal(old, next) {
		s.observer.WriteSkipped(path)
		return false
	}
	s.store(path, next)
	s.observer.WriteApplied(path)
	return true
}

// store writes next at path, creating intermediate mappings.
// A non-mapping intermediate is replaced by an empty mapping.
func (s *Store) store(path string, next any) {
	segs := splitPath(path)
	m := s.root
	for i, seg := range segs[:len(segs)-1] {
		child, ok := m[seg].(map[string]any)
		if !ok {
			if _, exists := m[seg]; exists {
				s.logger.Debug("state: replacing non-mapping intermediate",
					slog.String("path", Join(segs[:i+1]...)))
			}
			child = make(map[string]any)
			m[seg] = child
		}
		m = child
	}
	m[segs[len(segs)-1]] = next
}

func (s *Store) remove(path string) {
	segs := splitPath(path)
	m := s.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := m[seg].(map[string]any)
		if !ok {
			return
		}
		m = child
	}
	delete(m, segs[len(segs)-1])
}

func (s *Store) logInvalid(op, path string) {
	s.logger.Debug("state: invalid path",
		slog.String("code", rxerrors.CodeInvalidPath),
		slog.String("op", op),
		slog.String("path", path))
}

// =============================================================================
// Subscriptions
// =============================================================================

// Subscribe registers an external subscriber on path.
//
// Exact subscriptions fire only when path itself is written. Hierarchical
// subscriptions also fire for writes below path and for writes to an
// ancestor of path. The returned function unsubscribes; it is idempotent.
func (s *Store) Subscribe(path string, fn func(Change), hierarchical bool) (unsubscribe func()) {
	if !ValidPath(path) || fn == nil {
		s.logInvalid("subscribe", path)
		return func() {}
	}
	return s.reg.add(&subscription{
		path:         path,
		fn:           fn,
		hierarchical: hierarchical,
	})
}

// Watch registers an internal subscriber. Internal subscriptions always
// notify hierarchically and are deduplicated per listener, so a listener
// watching several related paths runs once per notification cycle.
func (s *Store) Watch(path string, l Listener) (unwatch func()) {
	if !ValidPath(path) || l == nil {
		return func() {}
	}
	return s.reg.add(&subscription{
		path:         path,
		listener:     l,
		hierarchical: true,
	})
}

// Subscriptions returns the number of live subscriptions.
func (s *Store) Subscriptions() int {
	return s.reg.Len()
}

// SubscriptionsUnder returns the number of live subscriptions on path or
// below it.
func (s *Store) SubscriptionsUnder(path string) int {
	n := len(s.reg.byPath[path])
	for _, p := range s.reg.pathsUnder(path) {
		n += len(s.reg.byPath[p])
	}
	return n
}

// Notifying reports whether path's notification is currently running.
func (s *Store) Notifying(path string) bool {
	return s.inFlight[path] > 0
}

// notify delivers one notification cycle for the changed paths.
func (s *Store) notify(changed []string) {
	if len(changed) == 0 {
		return
	}
	deliveries := s.reg.collect(changed)

	for _, p := range changed {
		s.inFlight[p]++
	}
	defer func() {
		for _, p := range changed {
			if s.inFlight[p]--; s.inFlight[p] <= 0 {
				delete(s.inFlight, p)
			}
		}
	}()

	for _, d := range deliveries {
		// Earlier subscribers may have unsubscribed later ones.
		if !d.sub.active {
			continue
		}
		v, _ := s.lookup(d.sub.path)
		s.deliver(d.sub, Change{Path: d.sub.path, Changed: d.changed, Value: v})
	}
	s.observer.Notified(changed, len(deliveries))
}

// deliver invokes one subscriber, isolating panics. Subscriber reads are
// never attributed to an evaluation that happens to be active.
func (s *Store) deliver(sub *subscription, c Change) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("state subscriber failed",
				slog.String("code", rxerrors.CodeSubscriber),
				slog.String("path", sub.path),
				slog.String("changed", c.Changed),
				slog.Any("panic", r))
			s.observer.SubscriberFailed(sub.path)
		}
	}()
	s.tracker.Untracked(func() {
		if sub.internal() {
			sub.listener.Notify(c)
		} else {
			sub.fn(c)
		}
	})
}

// =============================================================================
// Snapshots
// =============================================================================

// Snapshot returns a deep copy of the current tree.
func (s *Store) Snapshot() map[string]any {
	return copyTree(s.root)
}

// Reset restores the initial tree, discarding any open batch, and notifies
// every top-level key whose value changed.
func (s *Store) Reset() {
	s.batch = nil
	s.replace(copyTree(s.initial))
}

// Restore replaces the tree with a deep copy of tree and notifies every
// top-level key whose value changed. An open batch keeps its queued writes.
func (s *Store) Restore(tree map[string]any) {
	s.replace(copyTree(tree))
}

func (s *Store) replace(next map[string]any) {
	old := s.root
	s.root = next

	keys := make(map[string]struct{}, len(old)+len(next))
	for k := range old {
		keys[k] = struct{}{}
	}
	for k := range next {
		keys[k] = struct{}{}
	}
	changed := make([]string, 0, len(keys))
	for k := range keys {
		ov, oldOK := old[k]
		nv, newOK := next[k]
		if oldOK != newOK || !Equal(ov, nv) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	s.notify(changed)
	if s.batch == nil {
		s.flushAfterBatch()
	}
}
