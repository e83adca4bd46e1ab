// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package middleware provides HTTP middleware shared by the catalog API.

Key Components:

  - RequestID: request and correlation ID propagation for structured logs
  - PrometheusMetrics: per-route request counters, latency histograms and
    an in-flight gauge

Both are plain func(http.Handler) http.Handler values and mount directly
with chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

The request ID is read from X-Request-ID when the caller supplies a usable
one and generated otherwise. It is echoed on the response and stored in
the request context via the logging package, so every log line written
by a handler, the dispatcher or a source adapter carries it:

	logging.Ctx(r.Context()).Info().Msg("Search complete")
	// {"level":"info","request_id":"...","correlation_id":"...","message":"Search complete"}

PrometheusMetrics labels requests by chi route pattern (for example
"/api/v1/search") rather than raw path, which keeps label cardinality
bounded regardless of query strings or unknown paths.
*/
package middleware
