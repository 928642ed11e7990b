package state

import "time"

// Observer receives store events for metrics and tracing.
// Implementations must be cheap; they run inline with every write.
type Observer interface {
	// WriteApplied is called after a value was stored.
	WriteApplied(path string)

	// WriteSkipped is called when a write was a no-op because the value
	// was deep-equal to the stored one.
	WriteSkipped(path string)

	// WriteDropped is called when a write was rejected (invalid path or
	// circular update).
	WriteDropped(path string, reason error)

	// MiddlewareFailed is called for every isolated middleware failure.
	MiddlewareFailed(path string)

	// Notified is called once per notification cycle.
	Notified(changed []string, deliveries int)

	// SubscriberFailed is called for every isolated subscriber panic.
	SubscriberFailed(path string)

	// BatchCommitted is called after a batch commit finished notifying.
	BatchCommitted(queued, applied int, elapsed time.Duration)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) WriteApplied(string)                    {}
func (NopObserver) WriteSkipped(string)                    {}
func (NopObserver) WriteDropped(string, error)             {}
func (NopObserver) MiddlewareFailed(string)                {}
func (NopObserver) Notified([]string, int)                 {}
func (NopObserver) SubscriberFailed(string)                {}
func (NopObserver) BatchCommitted(int, int, time.Duration) {}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) WriteApplied(path string) {
	for _, o := range m {
		o.WriteApplied(path)
	}
}

func (m MultiObserver) WriteSkipped(path string) {
	for _, o := range m {
		o.WriteSkipped(path)
	}
}

func (m MultiObserver) WriteDropped(path string, reason error) {
	for _, o := range m {
		o.WriteDropped(path, reason)
	}
}

func (m MultiObserver) MiddlewareFailed(path string) {
	for _, o := range m {
		o.MiddlewareFailed(path)
	}
}

func (m MultiObserver) Notified(changed []string, deliveries int) {
	for _, o := range m {
		o.Notified(changed, deliveries)
	}
}

func (m MultiObserver) SubscriberFailed(path string) {
	for _, o := range m {
		o.SubscriberFailed(path)
	}
}

func (m MultiObserver) BatchCommitted(queued, applied int, elapsed time.Duration) {
	for _, o := range m {
		o.BatchCommitted(queued, applied, elapsed)
	}
}
