// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package api exposes the aggregator over a small JSON/HTTP surface built on chi.

Endpoints:

	GET  /api/v1/search?q=zelda&type=game&limit=5
	GET  /api/v1/trending?types=movie,game&limit=10
	POST /api/v1/popular        {"types":["movie"],"limit":10,"weights":[{"source":"tmdb","id":"603","weight":4}]}
	GET  /api/v1/sources
	GET  /api/v1/types
	GET  /api/v1/health/live
	GET  /api/v1/health/ready
	GET  /metrics

Every JSON response uses the same envelope:

	{"success":true,"data":[...],"meta":{"request_id":"...","timestamp":"...","duration_ms":12,"count":5}}
	{"success":false,"error":{"code":"VALIDATION_ERROR","message":"q is required"},"meta":{...}}

Status mapping:

  - invalid arguments and validation failures: 400
  - every dispatched source failed: 502, with per-source failure kinds in error.details
  - request context cancelled or timed out: 503
  - per-IP throttle exceeded: 429

Global middleware order: request ID, real IP, panic recovery, CORS, gzip.
The /api/v1 group adds per-IP throttling (go-chi/httprate), API security
headers and Prometheus instrumentation.
*/
package api
