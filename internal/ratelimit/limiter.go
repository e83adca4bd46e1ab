// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
)

// ErrLimitExceeded is returned when a source has no capacity within the
// allowed wait.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Limit is a per-source ceiling of Requests per Per.
type Limit struct {
	Requests int
	Per      time.Duration
}

// Valid reports whether the limit can be enforced.
func (l Limit) Valid() bool {
	return l.Requests > 0 && l.Per > 0
}

// Limiter gates calls per source. Each source owns an independent token
// bucket holding at most Requests tokens and refilling at Requests/Per, so
// exactly Requests admissions succeed in any burst and the next is refused
// until capacity returns. Sources without a configured limit are always admitted.
//
// Limiter is safe for concurrent use.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[models.SourceID]*rate.Limiter
	limits  map[models.SourceID]Limit
	now     func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the time source. Used by tests to drive refill deterministically.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a Limiter with one bucket per entry in limits.
func New(limits map[models.SourceID]Limit, opts ...Option) (*Limiter, error) {
	l := &Limiter{
		buckets: make(map[models.SourceID]*rate.Limiter, len(limits)),
		limits:  make(map[models.SourceID]Limit, len(limits)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	for source, limit := range limits {
		if err := l.set(source, limit); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Set installs or replaces the limit of one source.
func (l *Limiter) Set(source models.SourceID, limit Limit) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.set(source, limit)
}

// set must be called with mu held or before the limiter is shared.
func (l *Limiter) set(source models.SourceID, limit Limit) error {
	if !limit.Valid() {
		return fmt.Errorf("invalid rate limit for %s: %d/%s", source, limit.Requests, limit.Per)
	}
	every := rate.Limit(float64(limit.Requests) / limit.Per.Seconds())
	l.buckets[source] = rate.NewLimiter(every, limit.Requests)
	l.limits[source] = limit
	return nil
}

func (l *Limiter) bucket(source models.SourceID) *rate.Limiter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.buckets[source]
}

// Admit takes one token for source if available. It never blocks.
func (l *Limiter) Admit(source models.SourceID) bool {
	b := l.bucket(source)
	if b == nil {
		return true
	}
	if b.AllowN(l.now(), 1) {
		return true
	}
	metrics.RecordRateLimitRejection(string(source))
	return false
}

// Delay reports how long a caller would wait for the next token without
// consuming one. Zero means Admit would succeed now.
func (l *Limiter) Delay(source models.SourceID) time.Duration {
	b := l.bucket(source)
	if b == nil {
		return 0
	}
	now := l.now()
	r := b.ReserveN(now, 1)
	defer r.CancelAt(now)
	if !r.OK() {
		return rate.InfDuration
	}
	return r.DelayFrom(now)
}

// Wait blocks until source has capacity, maxWait elapses, or ctx is done.
// It returns the time spent waiting. When the required delay exceeds maxWait
// no token is consumed and ErrLimitExceeded is returned immediately.
func (l *Limiter) Wait(ctx context.Context, source models.SourceID, maxWait time.Duration) (time.Duration, error) {
	b := l.bucket(source)
	if b == nil {
		return 0, nil
	}

	now := l.now()
	r := b.ReserveN(now, 1)
	if !r.OK() {
		metrics.RecordRateLimitRejection(string(source))
		return 0, ErrLimitExceeded
	}

	delay := r.DelayFrom(now)
	if delay == 0 {
		return 0, nil
	}
	if delay > maxWait {
		r.CancelAt(now)
		metrics.RecordRateLimitRejection(string(source))
		return 0, fmt.Errorf("%w: %s needs %s, allowed %s", ErrLimitExceeded, source, delay, maxWait)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		metrics.RateLimitWaitDuration.WithLabelValues(string(source)).Observe(delay.Seconds())
		return delay, nil
	case <-ctx.Done():
		r.CancelAt(l.now())
		return 0, ctx.Err()
	}
}

// State is a read-only view of one source's bucket.
type State struct {
	Source models.SourceID `json:"source"`
	Limit  int             `json:"limit"`
	Per    time.Duration   `json:"per"`
	Tokens float64         `json:"tokens"`
}

// State reports the current bucket of source; ok is false when the source is
// not limited.
func (l *Limiter) State(source models.SourceID) (State, bool) {
	l.mu.RLock()
	b, limit := l.buckets[source], l.limits[source]
	l.mu.RUnlock()
	if b == nil {
		return State{}, false
	}
	return State{
		Source: source,
		Limit:  limit.Requests,
		Per:    limit.Per,
		Tokens: b.TokensAt(l.now()),
	}, true
}
