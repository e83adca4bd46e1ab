// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package sources

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
)

// BreakerSettings configures a per-source circuit breaker.
type BreakerSettings struct {
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// Timeout is how long the circuit stays open before a half-open probe.
	Timeout time.Duration
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
}

// DefaultBreakerSettings returns the settings used when none are configured.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 5, Timeout: 30 * time.Second, MaxRequests: 1}
}

// BreakerSource wraps a CatalogSource with a circuit breaker so a source that
// keeps failing is skipped without network calls until it recovers.
//
// Only upstream faults trip the breaker: unavailable, malformed and auth
// failures. Caller errors, upstream rate limiting and caller cancellation do not.
type BreakerSource struct {
	CatalogSource
	cb   *gobreaker.CircuitBreaker[[]models.MediaReference]
	name string
}

// WithBreaker wraps src.
func WithBreaker(src CatalogSource, s BreakerSettings) *BreakerSource {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = DefaultBreakerSettings().ConsecutiveFailures
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	name := string(src.ID())
	log := logging.ForSource(name)

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]models.MediaReference](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Timeout:     s.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= s.ConsecutiveFailures
			if trip {
				log.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := StateString(from), StateString(to)
			log.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			switch KindOf(err) {
			case ErrInvalidArgument, ErrUpstreamRateLimited:
				return true
			}
			return errors.Is(err, context.Canceled)
		},
	})

	return &BreakerSource{CatalogSource: src, cb: cb, name: name}
}

// Search runs the wrapped Search through the breaker.
func (b *BreakerSource) Search(ctx context.Context, kind models.MediaType, query string, limit int) ([]models.MediaReference, error) {
	return b.execute(OpSearch, func() ([]models.MediaReference, error) {
		return b.CatalogSource.Search(ctx, kind, query, limit)
	})
}

// Trending runs the wrapped Trending through the breaker.
func (b *BreakerSource) Trending(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	return b.execute(OpTrending, func() ([]models.MediaReference, error) {
		return b.CatalogSource.Trending(ctx, kind, limit)
	})
}

// Popular runs the wrapped Popular through the breaker.
func (b *BreakerSource) Popular(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	return b.execute(OpPopular, func() ([]models.MediaReference, error) {
		return b.CatalogSource.Popular(ctx, kind, limit)
	})
}

// State returns the breaker state: "closed", "half-open" or "open".
func (b *BreakerSource) State() string {
	return StateString(b.cb.State())
}

// Counts returns the breaker's current counters.
func (b *BreakerSource) Counts() gobreaker.Counts {
	return b.cb.Counts()
}

func (b *BreakerSource) execute(op Operation, fn func() ([]models.MediaReference, error)) ([]models.MediaReference, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, &Error{
				Source: b.ID(),
				Op:     op,
				Kind:   ErrUpstreamUnavailable,
				Err:    errors.Join(ErrCircuitOpen, err),
			}
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// StateString converts circuit breaker state to string for logging and status reports.
func StateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
