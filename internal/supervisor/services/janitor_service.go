// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/logging"
)

// Purger is a cache that can drop its expired entries.
type Purger interface {
	Name() string
	PurgeExpired() int
}

// CacheJanitorService sweeps expired entries from caches on a fixed interval.
// Lookups already ignore expired entries; the sweep only reclaims memory
// between lookups.
type CacheJanitorService struct {
	caches   []Purger
	interval time.Duration
	log      zerolog.Logger
}

// NewCacheJanitorService creates a janitor over caches. A non-positive
// interval defaults to one minute.
func NewCacheJanitorService(interval time.Duration, caches ...Purger) *CacheJanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheJanitorService{
		caches:   caches,
		interval: interval,
		log:      logging.WithComponent("cache-janitor"),
	}
}

// Serve implements suture.Service.
func (j *CacheJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *CacheJanitorService) sweep() {
	for _, c := range j.caches {
		if n := c.PurgeExpired(); n > 0 {
			j.log.Debug().Str("cache", c.Name()).Int("purged", n).Msg("Expired cache entries purged")
		}
	}
}

// String names the service in supervisor events.
func (j *CacheJanitorService) String() string {
	return "cache-janitor"
}
