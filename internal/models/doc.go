// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package models defines the normalized catalog record shared by every part of Marquee.

Every source adapter translates its upstream schema into MediaReference values;
the dispatcher, cache and aggregator only ever handle this one shape.

Key Components:

  - MediaReference: the normalized record (title, cover art, rating on a 0-10
    scale, release date, genres)
  - MediaType: the media kinds Marquee understands (movie, tv_show, game, ...)
  - SourceID: identifiers of the external catalogs
  - RefKey: the (source, external id) pair, the only valid cross-source identity

# Identity

Titles are never unique. Localized and original release names routinely differ
between catalogs, so the only identity Marquee uses anywhere (deduplication,
engagement weights, import) is RefKey:

	key := ref.Key() // models.RefKey{Source: "tmdb", ID: "603"}

# Immutability

A MediaReference is created once per response by an adapter and never changed
afterwards. Code that hands references across package boundaries (the cache in
particular) passes copies made with Clone, so no caller can mutate a value
another caller is holding.
*/
package models
