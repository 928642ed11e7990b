package telemetry

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/rx/pkg/binding"
	"github.com/vango-dev/rx/pkg/state"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "rx").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "rx",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records store and binding events as Prometheus metrics.
type Metrics struct {
	writes           *prometheus.CounterVec
	middlewareErrors *prometheus.CounterVec
	notifications    prometheus.Counter
	deliveries       prometheus.Counter
	subscriberErrors *prometheus.CounterVec
	batches          prometheus.Counter
	batchWrites      prometheus.Histogram
	batchDuration    prometheus.Histogram

	bindingRuns     *prometheus.CounterVec
	bindingErrors   *prometheus.CounterVec
	bindingDuration prometheus.Histogram
	bindingDeps     prometheus.Histogram
}

var (
	_ state.Observer   = (*Metrics)(nil)
	_ binding.Observer = (*Metrics)(nil)
)

// NewMetrics creates and registers the metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)
	ns := config.Namespace
	labels := config.ConstLabels

	return &Metrics{
		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "state",
			Name:        "writes_total",
			Help:        "Total state writes by result",
			ConstLabels: labels,
		}, []string{"root", "result"}),

		middlewareErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "state",
			Name:        "middleware_errors_total",
			Help:        "Total isolated middleware failures",
			ConstLabels: labels,
		}, []string{"root"}),

		notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "state",
			Name:        "notifications_total",
			Help:        "Total notification cycles",
			ConstLabels: labels,
		}),

		deliveries: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "state",
			Name:        "deliveries_total",
			Help:        "Total subscriber deliveries",
			ConstLabels: labels,
		}),

		subscriberErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "state",
			Name:        "subscriber_errors_total",
			Help:        "Total isolated subscriber panics",
			ConstLabels: labels,
		}, []string{"root"}),

		batches: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "state",
			Name:        "batches_total",
			Help:        "Total committed batches",
			ConstLabels: labels,
		}),

		batchWrites: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "state",
			Name:        "batch_writes",
			Help:        "Queued writes per committed batch",
			ConstLabels: labels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100},
		}),

		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "state",
			Name:        "batch_duration_seconds",
			Help:        "Batch commit duration in seconds",
			ConstLabels: labels,
			Buckets:     config.Buckets,
		}),

		bindingRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "binding",
			Name:        "runs_total",
			Help:        "Total binding runs by binding kind",
			ConstLabels: labels,
		}, []string{"kind"}),

		bindingErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "binding",
			Name:        "errors_total",
			Help:        "Total binding failures by binding kind",
			ConstLabels: labels,
		}, []string{"kind"}),

		bindingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "binding",
			Name:        "run_duration_seconds",
			Help:        "Binding run duration in seconds",
			ConstLabels: labels,
			Buckets:     config.Buckets,
		}),

		bindingDeps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "binding",
			Name:        "dependencies",
			Help:        "State paths read per binding run",
			ConstLabels: labels,
			Buckets:     []float64{0, 1, 2, 4, 8, 16, 32},
		}),
	}
}

// WriteApplied implements state.Observer.
func (m *Metrics) WriteApplied(path string) {
	m.writes.WithLabelValues(root(path), "applied").Inc()
}

// WriteSkipped implements state.Observer.
func (m *Metrics) WriteSkipped(path string) {
	m.writes.WithLabelValues(root(path), "skipped").Inc()
}

// WriteDropped implements state.Observer.
func (m *Metrics) WriteDropped(path string, reason error) {
	result := "dropped"
	if errors.Is(reason, state.ErrCircularUpdate) {
		result = "circular"
	}
	m.writes.WithLabelValues(root(path), result).Inc()
}

// MiddlewareFailed implements state.Observer.
func (m *Metrics) MiddlewareFailed(path string) {
	m.middlewareErrors.WithLabelValues(root(path)).Inc()
}

// Notified implements state.Observer.
func (m *Metrics) Notified(changed []string, deliveries int) {
	m.notifications.Inc()
	m.deliveries.Add(float64(deliveries))
}

// SubscriberFailed implements state.Observer.
func (m *Metrics) SubscriberFailed(path string) {
	m.subscriberErrors.WithLabelValues(root(path)).Inc()
}

// BatchCommitted implements state.Observer.
func (m *Metrics) BatchCommitted(queued, applied int, elapsed time.Duration) {
	m.batches.Inc()
	m.batchWrites.Observe(float64(queued))
	m.batchDuration.Observe(elapsed.Seconds())
}

// BindingRun implements binding.Observer.
func (m *Metrics) BindingRun(name string, deps int, elapsed time.Duration) {
	m.bindingRuns.WithLabelValues(kind(name)).Inc()
	m.bindingDuration.Observe(elapsed.Seconds())
	m.bindingDeps.Observe(float64(deps))
}

// BindingFailed implements binding.Observer.
func (m *Metrics) BindingFailed(name string) {
	m.bindingErrors.WithLabelValues(kind(name)).Inc()
}

// root returns the first segment of a state path. Invalid paths share one
// label value.
func root(path string) string {
	if !state.ValidPath(path) {
		return "invalid"
	}
	if i := strings.Index(path, state.PathSeparator); i >= 0 {
		return path[:i]
	}
	return path
}

// kind returns the binding name up to its first colon ("attr:class"
// becomes "attr"), or "other" for unnamed bindings.
func kind(name string) string {
	if name == "" {
		return "other"
	}
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return name
}
