// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package aggregate

import (
	"context"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

// AdapterHandle queries one source directly, bypassing merge and ranking.
// Calls still go through the dispatcher's cache, rate limiter, breaker and
// retry path, and failures are returned unchanged.
type AdapterHandle struct {
	agg    *Aggregator
	source models.SourceID
	kind   models.MediaType
}

// ResolveForType returns a handle bound to the first source registered for kind.
func (a *Aggregator) ResolveForType(kind models.MediaType) (*AdapterHandle, error) {
	if !kind.Valid() {
		return nil, sources.InvalidArgument("unknown media type %q", kind)
	}
	ids := a.dispatcher.SourcesFor(kind)
	if len(ids) == 0 {
		return nil, sources.InvalidArgument("no source serves media type %q", kind)
	}
	return &AdapterHandle{agg: a, source: ids[0], kind: kind}, nil
}

// Source returns the bound source.
func (h *AdapterHandle) Source() models.SourceID { return h.source }

// MediaType returns the bound media type.
func (h *AdapterHandle) MediaType() models.MediaType { return h.kind }

// Search queries the bound source.
func (h *AdapterHandle) Search(ctx context.Context, query string, limit int) ([]models.MediaReference, error) {
	q, err := sources.CheckQuery(query)
	if err != nil {
		return nil, err
	}
	return h.call(ctx, sources.Request{Op: sources.OpSearch, Query: q, Limit: limit})
}

// Trending queries the bound source.
func (h *AdapterHandle) Trending(ctx context.Context, limit int) ([]models.MediaReference, error) {
	return h.call(ctx, sources.Request{Op: sources.OpTrending, Limit: limit})
}

// Popular queries the bound source.
func (h *AdapterHandle) Popular(ctx context.Context, limit int) ([]models.MediaReference, error) {
	return h.call(ctx, sources.Request{Op: sources.OpPopular, Limit: limit})
}

func (h *AdapterHandle) call(ctx context.Context, req sources.Request) ([]models.MediaReference, error) {
	req.Kind = h.kind
	req.Limit = h.agg.limit(req.Limit)
	return h.agg.dispatcher.Call(ctx, h.source, req)
}
