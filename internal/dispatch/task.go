// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/cache"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/ratelimit"
	"github.com/tomtom215/marquee/internal/sources"
)

// maxAttempts is the initial call plus one retry.
const maxAttempts = 2

func (d *Dispatcher) logger(ctx context.Context) zerolog.Logger {
	return logging.CtxWith(ctx).Str("component", "dispatch").Logger()
}

// cacheKey identifies a source-level result.
func cacheKey(id models.SourceID, req sources.Request) string {
	return cache.Key("source:"+string(req.Op), cache.NormalizeQuery(req.Query), req.Limit, string(id), string(req.Kind))
}

func (d *Dispatcher) ttl(op sources.Operation) time.Duration {
	if op == sources.OpSearch {
		return d.cfg.SearchTTL
	}
	return d.cfg.ListTTL
}

// cancelledFlight marks a shared call that failed because the context of the
// caller that started it was done.
type cancelledFlight struct{ err error }

func (e *cancelledFlight) Error() string { return e.err.Error() }
func (e *cancelledFlight) Unwrap() error { return e.err }

// task runs one (media type, source) pair. It returns as soon as ctx is done,
// abandoning the in-flight call. A caller that joined a call cancelled by
// another caller's context starts a new one while its own context is live.
func (d *Dispatcher) task(ctx context.Context, r *registered, req sources.Request) ([]models.MediaReference, error) {
	id := r.src.ID()
	key := cacheKey(id, req)
	start := time.Now()

	for {
		if d.cache != nil {
			if refs, ok := d.cache.Get(key); ok {
				metrics.RecordUpstreamCall(string(id), string(req.Op), metrics.OutcomeCacheHit, 0)
				return refs, nil
			}
		}

		ch := d.flights.DoChan(key, func() (interface{}, error) {
			refs, err := d.invoke(ctx, r, req)
			if err != nil && ctx.Err() != nil {
				return nil, &cancelledFlight{err: err}
			}
			if err == nil && d.cache != nil && ctx.Err() == nil {
				d.cache.Put(key, refs, d.ttl(req.Op))
			}
			return refs, err
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				var cf *cancelledFlight
				if errors.As(res.Err, &cf) {
					if ctx.Err() == nil {
						continue
					}
					res.Err = cf.err
				}
				d.recordFailure(ctx, id, req, res.Err, time.Since(start))
				return nil, res.Err
			}
			metrics.RecordUpstreamCall(string(id), string(req.Op), metrics.OutcomeSuccess, time.Since(start))
			// Coalesced callers share the slice; each gets its own copy.
			refs, _ := res.Val.([]models.MediaReference)
			return models.CloneAll(refs), nil
		case <-ctx.Done():
			err := sources.NewError(id, req.Op, sources.ErrUpstreamUnavailable, fmt.Errorf("call abandoned: %w", ctx.Err()))
			metrics.RecordUpstreamCall(string(id), string(req.Op), metrics.OutcomeAbandoned, time.Since(start))
			log := d.logger(ctx)
			log.Warn().
				Str("source", string(id)).
				Str("media_type", string(req.Kind)).
				Str("operation", string(req.Op)).
				Dur("elapsed", time.Since(start)).
				Msg("Source call abandoned at deadline")
			return nil, err
		}
	}
}

// invoke holds the source's slot while it runs the admitted, retried call.
func (d *Dispatcher) invoke(ctx context.Context, r *registered, req sources.Request) ([]models.MediaReference, error) {
	id := r.src.ID()

	select {
	case r.slot <- struct{}{}:
		defer func() { <-r.slot }()
	case <-ctx.Done():
		return nil, sources.NewError(id, req.Op, sources.ErrUpstreamUnavailable, fmt.Errorf("waiting for source slot: %w", ctx.Err()))
	}

	attempt := 0
	return retry.DoWithData(
		func() ([]models.MediaReference, error) {
			attempt++
			if attempt > 1 {
				metrics.UpstreamRetries.WithLabelValues(string(id)).Inc()
				log := d.logger(ctx)
				log.Debug().Str("source", string(id)).Str("operation", string(req.Op)).Msg("Retrying transient source failure")
			}
			if err := d.admit(ctx, id, req.Op); err != nil {
				return nil, err
			}
			callCtx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
			defer cancel()
			return sources.Call(callCtx, r.src, req)
		},
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(d.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && sources.IsRetryable(err)
		}),
	)
}

// admit applies the rate limiter according to the configured mode.
func (d *Dispatcher) admit(ctx context.Context, id models.SourceID, op sources.Operation) error {
	if d.limiter == nil {
		return nil
	}
	if d.cfg.RateLimitMode == ModeWait {
		if _, err := d.limiter.Wait(ctx, id, d.cfg.WaitTimeout); err != nil {
			if errors.Is(err, ratelimit.ErrLimitExceeded) {
				return sources.NewError(id, op, sources.ErrUpstreamRateLimited, err)
			}
			return sources.NewError(id, op, sources.ErrUpstreamUnavailable, fmt.Errorf("waiting for rate limiter: %w", err))
		}
		return nil
	}
	if !d.limiter.Admit(id) {
		return sources.NewError(id, op, sources.ErrUpstreamRateLimited, ratelimit.ErrLimitExceeded)
	}
	return nil
}

// recordFailure logs and counts a failed task. Auth failures need an
// operator; malformed payloads are identified by hash only.
func (d *Dispatcher) recordFailure(ctx context.Context, id models.SourceID, req sources.Request, err error, elapsed time.Duration) {
	kind := sources.KindName(err)
	metrics.RecordUpstreamCall(string(id), string(req.Op), kind, elapsed)

	log := d.logger(ctx)
	var ev *zerolog.Event
	if errors.Is(err, sources.ErrUpstreamAuthFailed) {
		ev = log.Error().Bool("operator_attention", true)
	} else {
		ev = log.Warn()
	}
	ev = ev.Err(err).
		Str("source", string(id)).
		Str("media_type", string(req.Kind)).
		Str("operation", string(req.Op)).
		Str("error_kind", kind).
		Dur("elapsed", elapsed)

	var se *sources.Error
	if errors.As(err, &se) {
		if se.Status != 0 {
			ev = ev.Int("status", se.Status)
		}
		if se.PayloadHash != "" {
			ev = ev.Str("payload_sha256", se.PayloadHash)
		}
	}
	ev.Msg("Source call failed")
}
