// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package sourcestest provides a scriptable CatalogSource for tests of the
// dispatcher, aggregator and API layers.
package sourcestest

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

// Fake is an in-memory CatalogSource. With no Handler it returns Refs for
// every operation. A positive Delay blocks each call until it elapses or the
// context is done.
type Fake struct {
	SourceID models.SourceID
	Kinds    []models.MediaType
	Max      int
	Delay    time.Duration
	Refs     []models.MediaReference
	Err      error

	// Handler, when set, replaces Refs and Err.
	Handler func(ctx context.Context, req sources.Request) ([]models.MediaReference, error)

	mu       sync.Mutex
	requests []sources.Request
}

var _ sources.CatalogSource = (*Fake)(nil)

// ID implements sources.CatalogSource.
func (f *Fake) ID() models.SourceID { return f.SourceID }

// MediaTypes implements sources.CatalogSource.
func (f *Fake) MediaTypes() []models.MediaType { return f.Kinds }

// MaxResults implements sources.CatalogSource.
func (f *Fake) MaxResults() int {
	if f.Max <= 0 {
		return 100
	}
	return f.Max
}

// Search implements sources.CatalogSource.
func (f *Fake) Search(ctx context.Context, kind models.MediaType, query string, limit int) ([]models.MediaReference, error) {
	return f.handle(ctx, sources.Request{Op: sources.OpSearch, Kind: kind, Query: query, Limit: limit})
}

// Trending implements sources.CatalogSource.
func (f *Fake) Trending(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	return f.handle(ctx, sources.Request{Op: sources.OpTrending, Kind: kind, Limit: limit})
}

// Popular implements sources.CatalogSource.
func (f *Fake) Popular(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	return f.handle(ctx, sources.Request{Op: sources.OpPopular, Kind: kind, Limit: limit})
}

// Calls returns the number of invocations so far.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Requests returns a copy of every request received.
func (f *Fake) Requests() []sources.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sources.Request(nil), f.requests...)
}

func (f *Fake) handle(ctx context.Context, req sources.Request) ([]models.MediaReference, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Delay > 0 {
		timer := time.NewTimer(f.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, sources.NewError(f.SourceID, req.Op, sources.ErrUpstreamUnavailable, ctx.Err())
		}
	}

	if f.Handler != nil {
		return f.Handler(ctx, req)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return models.CloneAll(f.Refs), nil
}

// Ref builds a reference with a rating on the 0-10 scale.
func Ref(source models.SourceID, id string, kind models.MediaType, title string, rating float64) models.MediaReference {
	return models.NewReference(source, id, kind, title).WithRating(rating, 10)
}

// Unrated builds a reference without a rating.
func Unrated(source models.SourceID, id string, kind models.MediaType, title string) models.MediaReference {
	return models.NewReference(source, id, kind, title)
}
