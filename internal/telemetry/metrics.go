// Package telemetry holds the Prometheus collectors emitted by the core:
// build duration, search latency, cache hit rate, and per-index-type query
// volume. Metrics are optional — a nil *Metrics is safe to call methods on,
// so unit tests and callers with metrics disabled never need a registry.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every collector the core emits.
type Metrics struct {
	buildDuration    *prometheus.HistogramVec
	searchDuration   *prometheus.HistogramVec
	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter
	librariesIndexed prometheus.Gauge
}

// New registers and returns a Metrics bound to reg. Pass nil to disable
// metrics entirely (New(nil) is equivalent to a nil *Metrics).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		buildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "corvus",
			Name:      "build_duration_seconds",
			Help:      "Time to build an index, labeled by index type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"index_type"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "corvus",
			Name:      "search_duration_seconds",
			Help:      "Time to serve a search, labeled by index type and cache outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"index_type", "cache"}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corvus",
			Name:      "cache_hits_total",
			Help:      "Result cache hits.",
		}),
		cacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corvus",
			Name:      "cache_misses_total",
			Help:      "Result cache misses.",
		}),
		librariesIndexed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "corvus",
			Name:      "libraries_indexed",
			Help:      "Number of libraries currently holding a live index.",
		}),
	}

	reg.MustRegister(m.buildDuration, m.searchDuration, m.cacheHitsTotal, m.cacheMissesTotal, m.librariesIndexed)
	return m
}

// ObserveBuild records an index build's duration.
func (m *Metrics) ObserveBuild(indexType string, seconds float64) {
	if m == nil {
		return
	}
	m.buildDuration.WithLabelValues(indexType).Observe(seconds)
}

// ObserveSearch records a search's duration, labeled by whether it was
// served from cache.
func (m *Metrics) ObserveSearch(indexType string, cacheHit bool, seconds float64) {
	if m == nil {
		return
	}
	label := "miss"
	if cacheHit {
		label = "hit"
		m.cacheHitsTotal.Inc()
	} else {
		m.cacheMissesTotal.Inc()
	}
	m.searchDuration.WithLabelValues(indexType, label).Observe(seconds)
}

// SetLibrariesIndexed sets the current count of indexed libraries.
func (m *Metrics) SetLibrariesIndexed(n int) {
	if m == nil {
		return
	}
	m.librariesIndexed.Set(float64(n))
}
