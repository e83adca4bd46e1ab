// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package dispatch fans a logical catalog query out to every source registered
for the requested media types and collects their normalized results.

# Task Pipeline

Each (media type, source) pair is one task. A task runs these checks in order:

 1. Source cache lookup keyed by operation, normalized arguments, source and type
 2. Coalescing of identical concurrent misses (singleflight)
 3. The source's in-flight slot (one call per source at a time)
 4. Rate limiter admission: skip mode rejects, wait mode blocks up to WaitTimeout
 5. Circuit breaker
 6. The adapter call under CallTimeout
 7. At most one retry, only for transient unavailability
 8. Cache insertion with the operation's TTL

A task whose context ends stops waiting at once. Its call is abandoned and any
late result is discarded without being cached.

# Failure Semantics

Per-source failures never fail a dispatch. They are logged, counted and
reported in Result.Failures. Only when every task fails does Dispatch return
ErrAllSourcesFailed, which wraps each individual failure.

# Usage

	d := dispatch.New(dispatch.Config{CallTimeout: 8 * time.Second}, limiter, sourceCache)
	d.Register(tmdb.New(opts))
	res, err := d.Dispatch(ctx, dispatch.Request{Op: sources.OpTrending, Limit: 20})
*/
package dispatch
