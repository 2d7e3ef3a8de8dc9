package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/statetree/pkg/reactive"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "statetree").
	Namespace string

	// Subsystem is the metrics subsystem (default: "reactive").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
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
		Namespace: "statetree",
		Subsystem: "reactive",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a reactive.Observer that exports Prometheus metrics.
//
// Metrics collected:
//   - statetree_reactive_events_total: events fired, by router
//   - statetree_reactive_listener_dispatches_total: listener calls, by router
//   - statetree_reactive_dispatch_panics_total: aborted passes, by router
//   - statetree_reactive_dispatch_duration_seconds: pass duration, by router
//   - statetree_reactive_computation_runs_total: computation runs
//   - statetree_reactive_computation_panics_total: runs that panicked
//   - statetree_reactive_invalidations_total: clean-to-dirty transitions
//
// Like the tracker it observes, Metrics is not safe for concurrent use.
type Metrics struct {
	eventsTotal       *prometheus.CounterVec
	dispatchesTotal   *prometheus.CounterVec
	dispatchPanics    *prometheus.CounterVec
	dispatchDuration  *prometheus.HistogramVec
	computationRuns   prometheus.Counter
	computationPanics prometheus.Counter
	invalidations     prometheus.Counter

	// dispatchStarts is a stack of start times; passes nest when a listener
	// fires another event.
	dispatchStarts []time.Time
}

// NewMetrics creates the metrics and registers them with the configured
// registry. Registering twice on the same registry panics.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	tracker := reactive.NewTracker(
//	    reactive.WithObserver(observe.NewMetrics(observe.WithRegistry(reg))),
//	)
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of events fired by reactive routers",
			ConstLabels: config.ConstLabels,
		}, []string{"router"}),

		dispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listener_dispatches_total",
			Help:        "Total number of listener invocations that returned normally",
			ConstLabels: config.ConstLabels,
		}, []string{"router"}),

		dispatchPanics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_panics_total",
			Help:        "Total number of dispatch passes aborted by a panicking listener",
			ConstLabels: config.ConstLabels,
		}, []string{"router"}),

		dispatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Dispatch pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"router"}),

		computationRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computation_runs_total",
			Help:        "Total number of computation runs",
			ConstLabels: config.ConstLabels,
		}),

		computationPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "computation_panics_total",
			Help:        "Total number of computation runs that panicked",
			ConstLabels: config.ConstLabels,
		}),

		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "invalidations_total",
			Help:        "Total number of computation invalidations",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// ComputationStarted implements reactive.Observer.
func (m *Metrics) ComputationStarted(*reactive.Computation) {
	m.computationRuns.Inc()
}

// ComputationFinished implements reactive.Observer.
func (m *Metrics) ComputationFinished(_ *reactive.Computation, panicked bool) {
	if panicked {
		m.computationPanics.Inc()
	}
}

// Invalidated implements reactive.Observer.
func (m *Metrics) Invalidated(*reactive.Computation) {
	m.invalidations.Inc()
}

// DispatchStarted implements reactive.Observer.
func (m *Metrics) DispatchStarted(router string, _ int) {
	m.eventsTotal.WithLabelValues(router).Inc()
	m.dispatchStarts = append(m.dispatchStarts, time.Now())
}

// DispatchFinished implements reactive.Observer.
func (m *Metrics) DispatchFinished(router string, dispatched int, panicked bool) {
	m.dispatchesTotal.WithLabelValues(router).Add(float64(dispatched))
	if panicked {
		m.dispatchPanics.WithLabelValues(router).Inc()
	}

	if n := len(m.dispatchStarts); n > 0 {
		start := m.dispatchStarts[n-1]
		m.dispatchStarts = m.dispatchStarts[:n-1]
		m.dispatchDuration.WithLabelValues(router).Observe(time.Since(start).Seconds())
	}
}

// Ensure Metrics implements reactive.Observer
var _ reactive.Observer = (*Metrics)(nil)
