// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package sources defines the capability interface every catalog adapter
implements and the plumbing adapters share.

# CatalogSource

Each external catalog is one CatalogSource with search, trending and popular
operations for the media types it declares. Source-specific authentication,
request shapes and response schemas stay inside the adapter package
(sources/tmdb, sources/igdb and so on), so schema drift in one API touches one
package.

# Failure Taxonomy

Adapters never leak raw transport errors. Every failure is an *Error whose
Kind is one of:

  - ErrInvalidArgument: bad caller input, never retried
  - ErrUpstreamRateLimited: the source's own budget is exhausted (HTTP 429 or an in-body code)
  - ErrUpstreamAuthFailed: credential rejected (HTTP 401/403 or an in-body code)
  - ErrUpstreamUnavailable: transport error, timeout, 5xx or other 4xx
  - ErrUpstreamMalformedResponse: the payload did not match the schema; the
    error carries a SHA-256 hash of the payload for diagnosis

KindOf classifies any error and IsRetryable decides whether the single
allowed retry applies.

# Shared Transport

HTTPClient applies base URL, User-Agent and timeout, maps statuses to kinds,
bounds body reads, and supports in-body error classification for APIs that
report failures with HTTP 200.

# Circuit Breaker

WithBreaker wraps a source with a sony/gobreaker circuit breaker whose state
is exported as Prometheus gauges and reported on the sources endpoint.
*/
package sources
