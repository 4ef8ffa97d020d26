// Package prometheus provides the Prometheus implementation of the cache
// metrics interface.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/crux-go/core/cache"
)

// cacheMetrics implements cache.Metrics using Prometheus.
type cacheMetrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	evictions   prometheus.Counter
	expirations prometheus.Counter
	entries     prometheus.Gauge
	sizeBytes   prometheus.Gauge
}

// NewCacheMetrics creates a new Prometheus implementation of cache.Metrics.
func NewCacheMetrics(reg prometheus.Registerer) cache.Metrics {
	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crux_cache_hits_total",
			Help: "Total number of cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crux_cache_misses_total",
			Help: "Total number of cache misses",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crux_cache_evictions_total",
			Help: "Total number of LRU evictions",
		}),
		expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crux_cache_expirations_total",
			Help: "Total number of expired entries removed",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crux_cache_entries",
			Help: "Current number of cached entries",
		}),
		sizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crux_cache_size_bytes",
			Help: "Estimated total size of cached values",
		}),
	}

	reg.MustRegister(
		m.hits,
		m.misses,
		m.evictions,
		m.expirations,
		m.entries,
		m.sizeBytes,
	)

	return m
}

func (m *cacheMetrics) Hit()             { m.hits.Inc() }
func (m *cacheMetrics) Miss()            { m.misses.Inc() }
func (m *cacheMetrics) Eviction()        { m.evictions.Inc() }
func (m *cacheMetrics) Expiration()      { m.expirations.Inc() }
func (m *cacheMetrics) Entries(n int)    { m.entries.Set(float64(n)) }
func (m *cacheMetrics) Size(bytes int64) { m.sizeBytes.Set(float64(bytes)) }

var _ cache.Metrics = (*cacheMetrics)(nil)
