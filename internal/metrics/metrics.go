// Package metrics holds the Prometheus instrumentation exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinestream_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinestream_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cinestream_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Ratings
	RatingSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinestream_rating_submissions_total",
			Help: "Rating submissions by outcome",
		},
		[]string{"outcome"}, // "ok", "invalid", "not_found", "error"
	)

	// Search
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinestream_search_requests_total",
			Help: "Catalog searches by outcome",
		},
		[]string{"outcome"}, // "hit", "empty", "invalid", "error"
	)

	SearchCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinestream_search_cache_hits_total",
			Help: "Search pages served from cache",
		},
	)

	SearchCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinestream_search_cache_misses_total",
			Help: "Search pages not found in cache",
		},
	)

	SearchCacheErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinestream_search_cache_errors_total",
			Help: "Search cache operations that failed and fell back to the store",
		},
	)

	// Catalog feed
	FeedBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinestream_catalog_feed_breaker_state",
			Help: "Catalog feed circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	FeedPagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinestream_catalog_feed_pages_total",
			Help: "Catalog feed page fetches by result",
		},
		[]string{"result"}, // "ok", "not_found", "error", "rejected"
	)
)

// RecordHTTPRequest records one completed request.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordRatingSubmission counts a rating write by outcome.
func RecordRatingSubmission(outcome string) {
	RatingSubmissions.WithLabelValues(outcome).Inc()
}

// RecordSearch counts a search by outcome.
func RecordSearch(outcome string) {
	SearchRequests.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup counts a search cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		SearchCacheHits.Inc()
	} else {
		SearchCacheMisses.Inc()
	}
}

// RecordCacheError counts a failed cache operation.
func RecordCacheError() {
	SearchCacheErrors.Inc()
}

// SetFeedBreakerState publishes a breaker's state.
func SetFeedBreakerState(name string, state int) {
	FeedBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordFeedPage counts one catalog feed page fetch.
func RecordFeedPage(result string) {
	FeedPagesFetched.WithLabelValues(result).Inc()
}

// RegisterPoolGauges exposes connection-pool figures read on each scrape.
func RegisterPoolGauges(total, idle, acquired func() float64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cinestream_db_pool_total_conns",
		Help: "Total connections in the database pool",
	}, total)
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cinestream_db_pool_idle_conns",
		Help: "Idle connections in the database pool",
	}, idle)
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cinestream_db_pool_acquired_conns",
		Help: "Connections currently acquired from the database pool",
	}, acquired)
}
