// Package metrics exposes Prometheus collectors for the request pipeline,
// the cache and the sweeper, plus the HTTP server that serves them.
//
// Consumers take small interfaces (cache.Metrics, content.SweeperMetrics)
// and accept nil for zero-overhead operation; *Metrics implements all of
// them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all bytedrop collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	postsTotal  prometheus.Counter
	postsFailed prometheus.Counter
	getsTotal   prometheus.Counter
	getsFailed  prometheus.Counter
	rateLimited *prometheus.CounterVec
	storedBytes prometheus.Counter

	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheWeight    prometheus.Gauge

	sweepRemoved  prometheus.Counter
	sweepDuration prometheus.Histogram
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		postsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bytedrop_posts_total",
			Help: "Total POST requests that stored content.",
		}),
		postsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bytedrop_posts_failed_total",
			Help: "Total POST requests rejected or failed.",
		}),
		getsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bytedrop_gets_total",
			Help: "Total GET requests that served content.",
		}),
		getsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bytedrop_gets_failed_total",
			Help: "Total GET requests that returned an error.",
		}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bytedrop_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by scope.",
		}, []string{"scope"}),
		storedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "bytedrop_stored_bytes_total",
			Help: "Total stored-form bytes accepted for persistence.",
		}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "bytedrop_cache_hits_total",
			Help: "Cache lookups served from memory.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "bytedrop_cache_misses_total",
			Help: "Cache lookups that triggered a store load.",
		}),
		cacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "bytedrop_cache_evictions_total",
			Help: "Cache entries evicted by weight or idle expiry.",
		}),
		cacheWeight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bytedrop_cache_weight_bytes",
			Help: "Current total weight of cached records.",
		}),

		sweepRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "bytedrop_sweep_removed_total",
			Help: "Expired records deleted by the sweeper.",
		}),
		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bytedrop_sweep_duration_seconds",
			Help:    "Duration of sweep passes.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncPost counts a stored POST.
func (m *Metrics) IncPost() { m.postsTotal.Inc() }

// IncPostFailed counts a rejected or failed POST.
func (m *Metrics) IncPostFailed() { m.postsFailed.Inc() }

// IncGet counts a served GET.
func (m *Metrics) IncGet() { m.getsTotal.Inc() }

// IncGetFailed counts a failed GET.
func (m *Metrics) IncGetFailed() { m.getsFailed.Inc() }

// IncRateLimited counts a rate-limiter rejection for scope.
func (m *Metrics) IncRateLimited(scope string) { m.rateLimited.WithLabelValues(scope).Inc() }

// AddStoredBytes counts stored-form bytes accepted for persistence.
func (m *Metrics) AddStoredBytes(n int) { m.storedBytes.Add(float64(n)) }

// Hit implements cache.Metrics.
func (m *Metrics) Hit() { m.cacheHits.Inc() }

// Miss implements cache.Metrics.
func (m *Metrics) Miss() { m.cacheMisses.Inc() }

// Eviction implements cache.Metrics.
func (m *Metrics) Eviction() { m.cacheEvictions.Inc() }

// ObserveWeight implements cache.Metrics.
func (m *Metrics) ObserveWeight(weight int64) { m.cacheWeight.Set(float64(weight)) }

// ObserveSweep implements content.SweeperMetrics.
func (m *Metrics) ObserveSweep(removed int, duration time.Duration) {
	m.sweepRemoved.Add(float64(removed))
	m.sweepDuration.Observe(duration.Seconds())
}
