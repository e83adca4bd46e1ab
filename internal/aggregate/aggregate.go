// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package aggregate

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/cache"
	"github.com/tomtom215/marquee/internal/dispatch"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

// Config holds result sizing, ranking weights and result cache lifetimes.
type Config struct {
	DefaultLimit     int
	MaxLimit         int
	RatingWeight     float64
	EngagementWeight float64
	SearchTTL        time.Duration
	ListTTL          time.Duration
}

// Aggregator merges and ranks dispatcher results.
type Aggregator struct {
	cfg        Config
	dispatcher *dispatch.Dispatcher
	results    *cache.Cache
	sink       ImportSink
	log        zerolog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithImportSink sets the destination of Import.
func WithImportSink(sink ImportSink) Option {
	return func(a *Aggregator) {
		a.sink = sink
	}
}

// New creates an aggregator. results may be nil to disable result caching.
func New(cfg Config, d *dispatch.Dispatcher, results *cache.Cache, opts ...Option) *Aggregator {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	a := &Aggregator{
		cfg:        cfg,
		dispatcher: d,
		results:    results,
		log:        logging.WithComponent("aggregate"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SearchRequest is a search across one or more media types.
type SearchRequest struct {
	Query string
	// Types selects media types; empty means every registered type.
	Types []models.MediaType
	Limit int
}

// Search returns the deduplicated, rating-ranked matches for req.Query.
func (a *Aggregator) Search(ctx context.Context, req SearchRequest) ([]models.MediaReference, error) {
	query, err := sources.CheckQuery(req.Query)
	if err != nil {
		return nil, err
	}
	types, err := a.types(req.Types)
	if err != nil {
		return nil, err
	}
	limit := a.limit(req.Limit)
	key := cache.Key("search", cache.NormalizeQuery(query), types, limit)

	return a.cached(key, a.cfg.SearchTTL, func() ([]models.MediaReference, bool, error) {
		res, err := a.dispatcher.Dispatch(ctx, dispatch.Request{Op: sources.OpSearch, Types: types, Query: query, Limit: limit})
		if err != nil {
			return nil, false, err
		}
		return rank(res.Flatten(), limit, ratingScore), len(res.Failures) == 0, nil
	})
}

// Trending returns a ranked list per media type. Types without results are
// omitted from the mapping.
func (a *Aggregator) Trending(ctx context.Context, types []models.MediaType, limit int) (map[models.MediaType][]models.MediaReference, error) {
	types, err := a.types(types)
	if err != nil {
		return nil, err
	}
	limit = a.limit(limit)
	key := cache.Key("trending", types, limit)

	// The cached value is the per-type lists concatenated in type order.
	flat, err := a.cached(key, a.cfg.ListTTL, func() ([]models.MediaReference, bool, error) {
		res, err := a.dispatcher.Dispatch(ctx, dispatch.Request{Op: sources.OpTrending, Types: types, Limit: limit})
		if err != nil {
			return nil, false, err
		}
		var out []models.MediaReference
		for _, kind := range res.Order {
			out = append(out, rank(res.ByType[kind], limit, ratingScore)...)
		}
		return out, len(res.Failures) == 0, nil
	})
	if err != nil {
		return nil, err
	}

	grouped := make(map[models.MediaType][]models.MediaReference)
	for _, ref := range flat {
		grouped[ref.MediaType] = append(grouped[ref.MediaType], ref)
	}
	return grouped, nil
}

// Popular returns one list across types ranked by the weighted score of
// rating and engagement. weights may be nil.
func (a *Aggregator) Popular(ctx context.Context, types []models.MediaType, limit int, weights map[models.RefKey]float64) ([]models.MediaReference, error) {
	types, err := a.types(types)
	if err != nil {
		return nil, err
	}
	for k, w := range weights {
		if w < 0 {
			return nil, sources.InvalidArgument("engagement weight for %s must not be negative", k)
		}
	}
	limit = a.limit(limit)
	key := cache.Key("popular", types, limit, weightsKey(weights))

	rw, ew := a.cfg.RatingWeight, a.cfg.EngagementWeight
	score := func(ref *models.MediaReference) float64 {
		return rw*ref.RatingOrZero() + ew*weights[ref.Key()]
	}

	return a.cached(key, a.cfg.ListTTL, func() ([]models.MediaReference, bool, error) {
		res, err := a.dispatcher.Dispatch(ctx, dispatch.Request{Op: sources.OpPopular, Types: types, Limit: limit})
		if err != nil {
			return nil, false, err
		}
		return rank(res.Flatten(), limit, score), len(res.Failures) == 0, nil
	})
}

// Sources reports the registered sources.
func (a *Aggregator) Sources() []dispatch.SourceStatus {
	return a.dispatcher.Sources()
}

// Types returns every media type with a registered source.
func (a *Aggregator) Types() []models.MediaType {
	return a.dispatcher.Types()
}

// cached serves key from the result cache or computes it. Only complete
// results are stored: a merge missing a failed source would otherwise hide
// that source until the entry expires.
func (a *Aggregator) cached(key string, ttl time.Duration, compute func() ([]models.MediaReference, bool, error)) ([]models.MediaReference, error) {
	if a.results != nil {
		if refs, ok := a.results.Get(key); ok {
			a.log.Debug().Str("key", key).Msg("Result cache hit")
			return refs, nil
		}
	}
	refs, complete, err := compute()
	if err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []models.MediaReference{}
	}
	switch {
	case !complete:
		a.log.Debug().Str("key", key).Msg("Partial result not cached")
	case a.results != nil:
		a.results.Put(key, refs, ttl)
	}
	return refs, nil
}

// limit applies the default and the ceiling.
func (a *Aggregator) limit(limit int) int {
	if limit <= 0 {
		return a.cfg.DefaultLimit
	}
	if limit > a.cfg.MaxLimit {
		return a.cfg.MaxLimit
	}
	return limit
}

// types validates and deduplicates the request, keeping its order. An empty
// request expands to every registered type.
func (a *Aggregator) types(requested []models.MediaType) ([]models.MediaType, error) {
	if len(requested) == 0 {
		all := a.dispatcher.Types()
		if len(all) == 0 {
			return nil, sources.InvalidArgument("no sources registered")
		}
		return all, nil
	}
	seen := make(map[models.MediaType]bool, len(requested))
	out := make([]models.MediaType, 0, len(requested))
	for _, k := range requested {
		if !k.Valid() {
			return nil, sources.InvalidArgument("unknown media type %q", k)
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out, nil
}

// weightsKey renders weights deterministically for the result cache key.
func weightsKey(weights map[models.RefKey]float64) []string {
	out := make([]string, 0, len(weights))
	for k, w := range weights {
		if w == 0 {
			continue
		}
		out = append(out, k.String()+"="+strconv.FormatFloat(w, 'g', -1, 64))
	}
	sort.Strings(out)
	return out
}

func ratingScore(ref *models.MediaReference) float64 {
	return ref.RatingOrZero()
}

// rank deduplicates refs on (source, id) keeping the first occurrence,
// stable-sorts by score descending and truncates to limit.
func rank(refs []models.MediaReference, limit int, score func(*models.MediaReference) float64) []models.MediaReference {
	type scored struct {
		ref   models.MediaReference
		score float64
	}

	seen := make(map[models.RefKey]struct{}, len(refs))
	list := make([]scored, 0, len(refs))
	for i := range refs {
		k := refs[i].Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		list = append(list, scored{ref: refs[i], score: score(&refs[i])})
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].score > list[j].score
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]models.MediaReference, len(list))
	for i := range list {
		out[i] = list[i].ref
	}
	return out
}
