// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package metrics provides Prometheus metrics collection and export for observability.

Collectors are package-level variables registered with the default registry
through promauto, and exposed at /metrics in Prometheus text format:

	curl http://localhost:8087/metrics

# Available Metrics

Upstream Metrics:
  - marquee_upstream_requests_total: Adapter calls (counter)
    Labels: source, operation, outcome
  - marquee_upstream_request_duration_seconds: Adapter call latency (histogram)
    Labels: source, operation
  - marquee_upstream_retries_total: Single retries after a transient failure (counter)
  - marquee_token_refreshes_total: Bearer token exchanges (counter)
    Labels: source, result

Rate Limiter Metrics:
  - marquee_ratelimit_rejections_total: Refused admissions (counter)
    Labels: source
  - marquee_ratelimit_wait_seconds: Blocking-mode wait time (histogram)

Cache Metrics:
  - marquee_cache_hits_total, marquee_cache_misses_total (counter)
    Labels: cache ("source" or "result")
  - marquee_cache_evictions_total (counter)
    Labels: cache, reason ("capacity", "expired")
  - marquee_cache_entries (gauge)

Dispatch Metrics:
  - marquee_dispatch_total (counter)
    Labels: operation, outcome ("success", "partial", "all_failed")
  - marquee_dispatch_duration_seconds (histogram)

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
    Labels: name (source ID)
  - circuit_breaker_requests_total, circuit_breaker_consecutive_failures,
    circuit_breaker_state_transitions_total

API Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests,
    api_rate_limit_hits_total

# Usage

	start := time.Now()
	refs, err := src.Search(ctx, kind, query, limit)
	metrics.RecordUpstreamCall("tmdb", "search", outcome, time.Since(start))

Label cardinality is bounded: sources, operations and outcomes are closed
sets; API endpoints are chi route patterns, never raw paths.
*/
package metrics
