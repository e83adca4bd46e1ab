// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Command server runs the Marquee catalog aggregation service.

Startup order:

 1. Configuration: Koanf v2 (defaults, optional config.yaml, environment)
 2. Logging: zerolog initialized from the logging section
 3. Engine: rate limiter, source and result caches, one adapter per enabled
    source, dispatcher and aggregator, built once and shared
 4. Surface: chi router over the aggregator
 5. Supervision: suture tree running the cache janitor and HTTP server

Sources are enabled per catalog. AniList needs no credential and is on by
default; the others need their keys:

	export TMDB_ENABLED=true TMDB_API_KEY=...
	export IGDB_ENABLED=true IGDB_CLIENT_ID=... IGDB_CLIENT_SECRET=...
	./marquee

SIGINT and SIGTERM cancel the root context. The HTTP server drains in-flight
requests for up to 10s before the process exits.
*/
package main
