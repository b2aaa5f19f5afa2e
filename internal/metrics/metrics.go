// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the registry served on /metrics. It is separate from the
// default registerer so tests can build several servers in one process.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curio_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curio_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	CacheLookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curio_cache_lookups_total",
			Help: "Response cache lookups by tag and result (hit, miss, error).",
		},
		[]string{"tag", "result"},
	)

	CacheInvalidationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curio_cache_invalidated_entries_total",
			Help: "Cache entries dropped by tag invalidation.",
		},
		[]string{"tag"},
	)

	BookmarkMutationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curio_bookmark_mutations_total",
			Help: "Bookmark creations and deletions by outcome.",
		},
		[]string{"action", "outcome"},
	)

	RevalidationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curio_revalidations_total",
			Help: "Revalidation requests by source (webhook, admin, schedule).",
		},
		[]string{"source"},
	)

	RateLimitedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "curio_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// ObserveCache records one cache lookup.
func ObserveCache(tag string, hit bool, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	CacheLookupsTotal.WithLabelValues(tag, result).Inc()
}
