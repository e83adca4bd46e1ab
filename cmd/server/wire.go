// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"fmt"

	"github.com/tomtom215/marquee/internal/aggregate"
	"github.com/tomtom215/marquee/internal/cache"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/dispatch"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/ratelimit"
	"github.com/tomtom215/marquee/internal/sources"
	"github.com/tomtom215/marquee/internal/sources/anilist"
	"github.com/tomtom215/marquee/internal/sources/comicvine"
	"github.com/tomtom215/marquee/internal/sources/googlebooks"
	"github.com/tomtom215/marquee/internal/sources/igdb"
	"github.com/tomtom215/marquee/internal/sources/lastfm"
	"github.com/tomtom215/marquee/internal/sources/tmdb"
	"github.com/tomtom215/marquee/internal/supervisor/services"
)

// engine is the component graph built once at startup and shared by every request.
type engine struct {
	aggregator *aggregate.Aggregator
	dispatcher *dispatch.Dispatcher
	caches     []services.Purger
}

// adapterFactories builds an adapter from its configuration key.
var adapterFactories = map[string]func(sources.Options) sources.CatalogSource{
	config.SourceTMDB:        func(o sources.Options) sources.CatalogSource { return tmdb.New(o) },
	config.SourceIGDB:        func(o sources.Options) sources.CatalogSource { return igdb.New(o) },
	config.SourceGoogleBooks: func(o sources.Options) sources.CatalogSource { return googlebooks.New(o) },
	config.SourceLastFM:      func(o sources.Options) sources.CatalogSource { return lastfm.New(o) },
	config.SourceComicVine:   func(o sources.Options) sources.CatalogSource { return comicvine.New(o) },
	config.SourceAniList:     func(o sources.Options) sources.CatalogSource { return anilist.New(o) },
}

// buildEngine wires limiter, caches, adapters, dispatcher and aggregator from cfg.
func buildEngine(cfg *config.Config) (*engine, error) {
	enabled := cfg.Sources.Enabled()

	limits := make(map[models.SourceID]ratelimit.Limit, len(enabled))
	for _, ns := range enabled {
		limits[models.SourceID(ns.Name)] = ratelimit.Limit{
			Requests: ns.Config.RateLimit.Requests,
			Per:      ns.Config.RateLimit.Per,
		}
	}
	limiter, err := ratelimit.New(limits)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	sourceCache := cache.New("source", cfg.Cache.MaxEntries)
	resultCache := cache.New("result", cfg.Cache.MaxEntries)

	d := dispatch.New(dispatch.Config{
		CallTimeout:   cfg.Dispatch.CallTimeout,
		MaxParallel:   cfg.Dispatch.MaxParallel,
		RateLimitMode: dispatch.RateLimitMode(cfg.Dispatch.RateLimitMode),
		WaitTimeout:   cfg.Dispatch.WaitTimeout,
		RetryDelay:    cfg.Dispatch.RetryDelay,
		SearchTTL:     cfg.Cache.CatalogTTL,
		ListTTL:       cfg.Cache.ListTTL,
		Breaker: sources.BreakerSettings{
			ConsecutiveFailures: cfg.Dispatch.BreakerFailures,
			Timeout:             cfg.Dispatch.BreakerTimeout,
		},
	}, limiter, sourceCache)

	for _, ns := range enabled {
		factory, ok := adapterFactories[ns.Name]
		if !ok {
			return nil, fmt.Errorf("no adapter for source %q", ns.Name)
		}
		src := factory(sources.Options{
			BaseURL:      ns.Config.BaseURL,
			UserAgent:    cfg.Sources.UserAgent,
			Timeout:      cfg.Dispatch.CallTimeout,
			MaxResults:   ns.Config.MaxResults,
			APIKey:       ns.Config.APIKey,
			ClientID:     ns.Config.ClientID,
			ClientSecret: ns.Config.ClientSecret,
			TokenURL:     ns.Config.TokenURL,
			Topic:        ns.Config.Topic,
		})
		if err := d.Register(src); err != nil {
			return nil, fmt.Errorf("register %s: %w", ns.Name, err)
		}
	}

	agg := aggregate.New(aggregate.Config{
		DefaultLimit:     cfg.Aggregate.DefaultLimit,
		MaxLimit:         cfg.Aggregate.MaxLimit,
		RatingWeight:     cfg.Aggregate.RatingWeight,
		EngagementWeight: cfg.Aggregate.EngagementWeight,
		SearchTTL:        cfg.Cache.CatalogTTL,
		ListTTL:          cfg.Cache.ListTTL,
	}, d, resultCache)

	return &engine{
		aggregator: agg,
		dispatcher: d,
		caches:     []services.Purger{sourceCache, resultCache},
	}, nil
}
