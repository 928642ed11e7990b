package state

import "sync/atomic"

// globalIDCounter is the source of unique IDs for subscriptions and listeners.
var globalIDCounter uint64

// NextID returns the next unique ID. IDs are monotonically increasing and
// never reused, so they are safe to use for deduplication.
func NextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
