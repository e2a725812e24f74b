// Package metrics exposes storefront counters through Prometheus.
//
// A *Metrics value satisfies state.Observer and catalog.CacheObserver, and
// records dispatch outcomes for engine.Engine. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/storefront/internal/action"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "storefront").
	Namespace string

	// Buckets are the histogram buckets for dispatch and fetch durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the registry collectors are registered with.
	// Default: a fresh prometheus.NewRegistry()
	Registry *prometheus.Registry
}

// Option configures Metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Metrics holds the storefront collectors.
type Metrics struct {
	registry *prometheus.Registry

	applied     *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	dispatchErr *prometheus.CounterVec
	dispatchDur prometheus.Histogram
	subscribers prometheus.Gauge
	cache       *prometheus.CounterVec
	fetchDur    *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	cfg := Config{
		Namespace: "storefront",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: cfg.Registry,
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "actions_applied_total",
			Help:      "Actions that changed state, by type.",
		}, []string{"type"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "actions_dropped_total",
			Help:      "Actions dropped as malformed or no-op, by type.",
		}, []string{"type"}),
		dispatchErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "dispatch_errors_total",
			Help:      "Dispatches that returned an error, by type.",
		}, []string{"type"}),
		dispatchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent dispatching one action.",
			Buckets:   cfg.Buckets,
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "subscribers",
			Help:      "Current number of store subscribers.",
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "catalog_cache_total",
			Help:      "Catalog cache lookups by result (hit|miss).",
		}, []string{"result"}),
		fetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "catalog_fetch_duration_seconds",
			Help:      "Catalog network fetch latency by outcome.",
			Buckets:   cfg.Buckets,
		}, []string{"outcome"}),
	}

	cfg.Registry.MustRegister(
		m.applied, m.dropped, m.dispatchErr, m.dispatchDur,
		m.subscribers, m.cache, m.fetchDur,
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ActionApplied implements state.Observer.
func (m *Metrics) ActionApplied(t action.Type) {
	if m == nil {
		return
	}
	m.applied.WithLabelValues(string(t)).Inc()
}

// ActionDropped implements state.Observer.
func (m *Metrics) ActionDropped(t action.Type) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(string(t)).Inc()
}

// SubscribersChanged implements state.Observer.
func (m *Metrics) SubscribersChanged(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

// DispatchObserved records one dispatch and its outcome.
func (m *Metrics) DispatchObserved(t action.Type, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.dispatchDur.Observe(d.Seconds())
	if err != nil {
		m.dispatchErr.WithLabelValues(string(t)).Inc()
	}
}

// CacheHit implements catalog.CacheObserver.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cache.WithLabelValues("hit").Inc()
}

// CacheMiss implements catalog.CacheObserver.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cache.WithLabelValues("miss").Inc()
}

// FetchObserved implements catalog.FetchObserver.
func (m *Metrics) FetchObserved(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.fetchDur.WithLabelValues(outcome).Observe(d.Seconds())
}
