// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package config provides centralized configuration management for Marquee.

Configuration is loaded once at process start with Koanf v2 and is never
re-read per call. Three layers are merged, later layers winning:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml or /etc/marquee/config.yaml
 3. Environment variables from an explicit mapping table

# Catalog Sources

Every source has the same shape under sources.<name>:

	sources:
	  tmdb:
	    enabled: true
	    base_url: https://api.themoviedb.org/3
	    api_key: ${TMDB_API_KEY}
	    rate_limit:
	      requests: 40
	      per: 1s
	    max_results: 20
	  igdb:
	    enabled: true
	    client_id: ...
	    client_secret: ...
	    token_url: https://id.twitch.tv/oauth2/token

Per-source environment variables follow <PREFIX>_<FIELD>, with prefixes
TMDB, IGDB, GOOGLE_BOOKS, LASTFM, COMICVINE and ANILIST:

  - TMDB_ENABLED, TMDB_API_KEY, TMDB_BASE_URL
  - IGDB_CLIENT_ID, IGDB_CLIENT_SECRET, IGDB_TOKEN_URL
  - LASTFM_RATE_LIMIT_REQUESTS, LASTFM_RATE_LIMIT_PER, LASTFM_MAX_RESULTS
  - GOOGLE_BOOKS_TOPIC, LASTFM_TOPIC

# Engine Settings

  - CACHE_CATALOG_TTL (1h), CACHE_LIST_TTL (5m), CACHE_MAX_ENTRIES, CACHE_CLEANUP_INTERVAL
  - DISPATCH_CALL_TIMEOUT (8s), DISPATCH_MAX_PARALLEL, DISPATCH_RATE_LIMIT_MODE (skip|wait),
    DISPATCH_WAIT_TIMEOUT, DISPATCH_RETRY_DELAY, DISPATCH_BREAKER_FAILURES, DISPATCH_BREAKER_TIMEOUT
  - AGGREGATE_DEFAULT_LIMIT (20), AGGREGATE_MAX_LIMIT (100),
    AGGREGATE_RATING_WEIGHT (1.0), AGGREGATE_ENGAGEMENT_WEIGHT (2.0)

# Server and Logging

  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT
  - RATE_LIMIT_REQS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT, CORS_ORIGINS (comma separated)
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Unmapped environment variables are ignored.

# Validation

LoadWithKoanf calls Config.Validate. Enabled sources must carry their
credential material and a positive rate ceiling; durations and limits must be
positive; the limiter mode must be skip or wait.
*/
package config
