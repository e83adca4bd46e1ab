// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/marquee/internal/cache"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/ratelimit"
	"github.com/tomtom215/marquee/internal/sources"
)

// ErrAllSourcesFailed is returned when every selected source failed.
var ErrAllSourcesFailed = errors.New("all sources failed")

// RateLimitMode selects what happens when a source's budget is exhausted.
type RateLimitMode string

const (
	// ModeSkip drops the source from the current dispatch.
	ModeSkip RateLimitMode = "skip"
	// ModeWait blocks for capacity up to Config.WaitTimeout.
	ModeWait RateLimitMode = "wait"
)

// Config holds dispatcher settings.
type Config struct {
	// CallTimeout bounds every adapter call attempt.
	CallTimeout time.Duration
	// MaxParallel bounds concurrent tasks per dispatch.
	MaxParallel   int
	RateLimitMode RateLimitMode
	WaitTimeout   time.Duration
	// RetryDelay is the pause before the single retry.
	RetryDelay time.Duration

	// SearchTTL and ListTTL are the source cache lifetimes per operation.
	SearchTTL time.Duration
	ListTTL   time.Duration

	// Breaker configures the per-source circuit breaker. A zero
	// ConsecutiveFailures disables it.
	Breaker sources.BreakerSettings
}

// registered is one source and its dispatch state.
type registered struct {
	src     sources.CatalogSource
	breaker *sources.BreakerSource
	// slot admits one in-flight call per source.
	slot chan struct{}
}

// Dispatcher fans queries out to registered sources. It is safe for
// concurrent use; registration is expected to finish before the first dispatch.
type Dispatcher struct {
	cfg     Config
	limiter *ratelimit.Limiter
	cache   *cache.Cache

	mu     sync.RWMutex
	order  []*registered
	byID   map[models.SourceID]*registered
	byType map[models.MediaType][]*registered

	flights singleflight.Group
	log     zerolog.Logger
}

// New creates a dispatcher. limiter and sourceCache may be nil, which
// disables admission control and caching respectively.
func New(cfg Config, limiter *ratelimit.Limiter, sourceCache *cache.Cache) *Dispatcher {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 8 * time.Second
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 8
	}
	if cfg.RateLimitMode == "" {
		cfg.RateLimitMode = ModeSkip
	}
	return &Dispatcher{
		cfg:     cfg,
		limiter: limiter,
		cache:   sourceCache,
		byID:    make(map[models.SourceID]*registered),
		byType:  make(map[models.MediaType][]*registered),
		log:     logging.WithComponent("dispatch"),
	}
}

// Register adds a source. Registration order is source-call order for every
// media type the source serves.
func (d *Dispatcher) Register(src sources.CatalogSource) error {
	if src == nil {
		return fmt.Errorf("register: nil source")
	}
	kinds := src.MediaTypes()
	if len(kinds) == 0 {
		return fmt.Errorf("register %s: source serves no media types", src.ID())
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byID[src.ID()]; exists {
		return fmt.Errorf("register %s: source already registered", src.ID())
	}

	r := &registered{src: src, slot: make(chan struct{}, 1)}
	if d.cfg.Breaker.ConsecutiveFailures > 0 {
		r.breaker = sources.WithBreaker(src, d.cfg.Breaker)
		r.src = r.breaker
	}

	d.order = append(d.order, r)
	d.byID[src.ID()] = r
	for _, k := range kinds {
		d.byType[k] = append(d.byType[k], r)
	}

	d.log.Info().
		Str("source", string(src.ID())).
		Interface("media_types", kinds).
		Int("max_results", src.MaxResults()).
		Bool("circuit_breaker", r.breaker != nil).
		Msg("Source registered")
	return nil
}

// Types returns every media type with at least one source, in canonical order.
func (d *Dispatcher) Types() []models.MediaType {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.MediaType, 0, len(d.byType))
	for _, k := range models.AllMediaTypes {
		if len(d.byType[k]) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// SourcesFor returns the IDs of the sources serving kind, in registration order.
func (d *Dispatcher) SourcesFor(kind models.MediaType) []models.SourceID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	regs := d.byType[kind]
	out := make([]models.SourceID, len(regs))
	for i, r := range regs {
		out[i] = r.src.ID()
	}
	return out
}

// SourceStatus describes a registered source for status reporting.
type SourceStatus struct {
	ID         models.SourceID    `json:"id"`
	MediaTypes []models.MediaType `json:"media_types"`
	MaxResults int                `json:"max_results"`

	// Breaker is "closed", "half-open", "open", or "disabled".
	Breaker   string           `json:"breaker"`
	RateLimit *ratelimit.State `json:"rate_limit,omitempty"`
}

// Sources reports every registered source in registration order.
func (d *Dispatcher) Sources() []SourceStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]SourceStatus, 0, len(d.order))
	for _, r := range d.order {
		st := SourceStatus{
			ID:         r.src.ID(),
			MediaTypes: r.src.MediaTypes(),
			MaxResults: r.src.MaxResults(),
			Breaker:    "disabled",
		}
		if r.breaker != nil {
			st.Breaker = r.breaker.State()
		}
		if d.limiter != nil {
			if rl, ok := d.limiter.State(r.src.ID()); ok {
				st.RateLimit = &rl
			}
		}
		out = append(out, st)
	}
	return out
}
