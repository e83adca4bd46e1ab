// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package aggregate is the query surface callers consume. It asks the
dispatcher for per-source results, deduplicates them on (source, id),
ranks them and truncates to the requested size.

# Ranking

Search and trending rank by average rating, a missing rating counting as 0.
Popular ranks by

	score = RatingWeight*rating + EngagementWeight*engagement

where engagement comes from caller-supplied weights, e.g. local review counts.
All sorts are stable, so ties keep dispatch order.

Titles are never used for identity: two references with the same title from
different sources are both kept.

# Caching

The final ranked list is cached under the operation and its normalized
arguments. Two identical calls within the TTL return identical lists.
*/
package aggregate
