package persist

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when a snapshot doesn't exist.
var ErrNotFound = errors.New("persist: snapshot not found")

// ErrInvalidName is returned for empty snapshot names.
var ErrInvalidName = errors.New("persist: invalid snapshot name")

// Backend stores encoded snapshots by name.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Save stores data under name, replacing any previous snapshot.
	Save(ctx context.Context, name string, data []byte) error

	// Load returns the snapshot stored under name, or ErrNotFound.
	Load(ctx context.Context, name string) ([]byte, error)

	// Delete removes the snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the stored snapshot names in lexical order.
	List(ctx context.Context) ([]string, error)
}

// MemoryBackend keeps snapshots in memory.
type MemoryBackend struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[string][]byte)}
}

// Save implements Backend.
func (m *MemoryBackend) Save(_ context.Context, name string, data []byte) error {
	if name == "" {
		return ErrInvalidName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[name] = append([]byte(nil), data...)
	return nil
}

// Load implements Backend.
func (m *MemoryBackend) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, name)
	return nil
}

// List implements Backend.
func (m *MemoryBackend) List(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.items))
	for name := range m.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
