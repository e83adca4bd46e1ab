// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for upstream and dispatch counters.
const (
	OutcomeSuccess     = "success"
	OutcomeCacheHit    = "cache_hit"
	OutcomeRateLimited = "rate_limited"
	OutcomeAuthFailed  = "auth_failed"
	OutcomeUnavailable = "unavailable"
	OutcomeMalformed   = "malformed"
	OutcomeInvalid     = "invalid_argument"
	OutcomeCircuitOpen = "circuit_open"
	OutcomePartial     = "partial"
	OutcomeAllFailed   = "all_failed"
	OutcomeAbandoned   = "abandoned"
)

var (
	// Upstream catalog metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_upstream_requests_total",
			Help: "Total number of calls to upstream catalog APIs by outcome",
		},
		[]string{"source", "operation", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_upstream_request_duration_seconds",
			Help:    "Duration of upstream catalog calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"source", "operation"},
	)

	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_upstream_retries_total",
			Help: "Total number of retried upstream calls after a transient failure",
		},
		[]string{"source"},
	)

	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_token_refreshes_total",
			Help: "Total number of bearer token exchanges against identity endpoints",
		},
		[]string{"source", "result"},
	)

	// Rate limiter metrics
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_ratelimit_rejections_total",
			Help: "Total number of admissions refused by the per-source rate limiter",
		},
		[]string{"source"},
	)

	RateLimitWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_ratelimit_wait_seconds",
			Help:    "Time spent waiting for rate limiter capacity in blocking mode",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"source"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_cache_evictions_total",
			Help: "Total number of cache entries removed by size bound or expiry",
		},
		[]string{"cache", "reason"}, // reason: "capacity", "expired"
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marquee_cache_entries",
			Help: "Current number of cache entries",
		},
		[]string{"cache"},
	)

	// Dispatch metrics
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_dispatch_total",
			Help: "Total number of dispatches by operation and outcome",
		},
		[]string{"operation", "outcome"}, // outcome: "success", "partial", "all_failed"
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_dispatch_duration_seconds",
			Help:    "End to end duration of a dispatch fan-out",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordUpstreamCall records one adapter invocation.
func RecordUpstreamCall(source, operation, outcome string, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(source, operation, outcome).Inc()
	if outcome != OutcomeCacheHit && outcome != OutcomeRateLimited {
		UpstreamRequestDuration.WithLabelValues(source, operation).Observe(duration.Seconds())
	}
}

// RecordRateLimitRejection records a refused admission.
func RecordRateLimitRejection(source string) {
	RateLimitRejections.WithLabelValues(source).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
		return
	}
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordCacheEviction records entries removed from a cache.
func RecordCacheEviction(cache, reason string, n int) {
	if n <= 0 {
		return
	}
	CacheEvictions.WithLabelValues(cache, reason).Add(float64(n))
}

// RecordDispatch records a completed dispatch.
func RecordDispatch(operation, outcome string, duration time.Duration) {
	DispatchTotal.WithLabelValues(operation, outcome).Inc()
	DispatchDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
