// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package ratelimit provides per-source admission control for upstream catalog
// calls, built on golang.org/x/time/rate token buckets.
//
// Each source carries its own "N requests per T" ceiling read from
// configuration; there is no shared budget between sources. The limiter holds
// only counters and is never exposed to adapters. The dispatcher uses Admit in
// skip mode and Wait in blocking mode:
//
//	if !limiter.Admit(models.SourceTMDB) {
//	    // skip this source for the current dispatch
//	}
//
//	if _, err := limiter.Wait(ctx, models.SourceIGDB, 2*time.Second); err != nil {
//	    // capacity did not return in time
//	}
package ratelimit
