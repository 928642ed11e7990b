package binding

import "time"

// Observer receives binding events.
type Observer interface {
	BindingRun(name string, deps int, elapsed time.Duration)
	BindingFailed(name string)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) BindingRun(string, int, time.Duration) {}
func (NopObserver) BindingFailed(string)                  {}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) BindingRun(name string, deps int, elapsed time.Duration) {
	for _, o := range m {
		o.BindingRun(name, deps, elapsed)
	}
}

func (m MultiObserver) BindingFailed(name string) {
	for _, o := range m {
		o.BindingFailed(name)
	}
}
