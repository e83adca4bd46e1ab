// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package cache provides thread-safe in-memory caching of normalized catalog
results with TTL expiry and a size bound.

Two caches are built at process start and injected where they are needed:

  - "source": per (operation, arguments, source, media type) lists, consulted
    by the dispatcher before the rate limiter and the adapter
  - "result": final merged and ranked lists per (operation, arguments),
    consulted by the aggregator

# Expiry and Eviction

Every Put carries its own TTL: one hour for catalog lookups and five minutes
for trending and popular lists by default. Expired entries are dropped on
read and swept by PurgeExpired, which the cache janitor service runs on an
interval. When MaxEntries is reached the least-recently-inserted entry goes
first; reads never refresh an entry's position.

# Keys

Key hashes the JSON encoding of the argument tuple with SHA-256:

	key := cache.Key("search", "legend of zelda", "game", 5, "igdb")

# Correctness

The cache only reduces upstream call volume. A miss is always satisfied by a
live call, and nothing is persisted across restarts.
*/
package cache
