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

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

// Request is one logical dispatch.
type Request struct {
	Op sources.Operation
	// Types selects media types; empty means every registered type.
	Types []models.MediaType
	Query string
	// Limit is passed to every source, which clamps it to its own maximum.
	Limit int
}

// SourceFailure records one failed task.
type SourceFailure struct {
	Source    models.SourceID
	MediaType models.MediaType
	Err       error
}

// Result holds per-type results. Within a type, references are in
// source-call order and are not ranked.
type Result struct {
	// ByType omits media types for which no source succeeded.
	ByType map[models.MediaType][]models.MediaReference
	// Order lists the keys of ByType in request order.
	Order    []models.MediaType
	Failures []SourceFailure
}

// Flatten concatenates every list in Order.
func (r *Result) Flatten() []models.MediaReference {
	var n int
	for _, k := range r.Order {
		n += len(r.ByType[k])
	}
	out := make([]models.MediaReference, 0, n)
	for _, k := range r.Order {
		out = append(out, r.ByType[k]...)
	}
	return out
}

// taskResult is the outcome of one (media type, source) task.
type taskResult struct {
	refs []models.MediaReference
	err  error
}

// Dispatch runs req against every source registered for the requested types.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	ctx = logging.EnsureCorrelationID(ctx)
	start := time.Now()

	if err := validate(&req); err != nil {
		return nil, err
	}
	types, plan, err := d.plan(req.Types)
	if err != nil {
		return nil, err
	}

	results := make([][]taskResult, len(plan))
	var g errgroup.Group
	g.SetLimit(d.cfg.MaxParallel)
	for i, regs := range plan {
		results[i] = make([]taskResult, len(regs))
		for j, r := range regs {
			g.Go(func() error {
				refs, err := d.task(ctx, r, sources.Request{Op: req.Op, Kind: types[i], Query: req.Query, Limit: req.Limit})
				results[i][j] = taskResult{refs: refs, err: err}
				return nil
			})
		}
	}
	_ = g.Wait()

	res := &Result{ByType: make(map[models.MediaType][]models.MediaReference, len(types))}
	var errs []error
	tasks := 0
	for i, kind := range types {
		ok := false
		for j, tr := range results[i] {
			tasks++
			if tr.err != nil {
				res.Failures = append(res.Failures, SourceFailure{Source: plan[i][j].src.ID(), MediaType: kind, Err: tr.err})
				errs = append(errs, tr.err)
				continue
			}
			res.ByType[kind] = append(res.ByType[kind], tr.refs...)
			ok = true
		}
		if ok {
			if res.ByType[kind] == nil {
				res.ByType[kind] = []models.MediaReference{}
			}
			res.Order = append(res.Order, kind)
		}
	}

	outcome := metrics.OutcomeSuccess
	switch {
	case len(errs) == tasks:
		outcome = metrics.OutcomeAllFailed
	case len(errs) > 0:
		outcome = metrics.OutcomePartial
	}
	metrics.RecordDispatch(string(req.Op), outcome, time.Since(start))

	log := d.logger(ctx)
	if outcome == metrics.OutcomeAllFailed {
		log.Warn().
			Str("operation", string(req.Op)).
			Int("sources", tasks).
			Dur("duration", time.Since(start)).
			Msg("All sources failed")
		return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
	}

	log.Debug().
		Str("operation", string(req.Op)).
		Int("sources", tasks).
		Int("failures", len(errs)).
		Dur("duration", time.Since(start)).
		Msg("Dispatch complete")
	return res, nil
}

// Call runs a single source through the same cache, limiter, breaker and
// retry path as Dispatch. Failures are returned as they are.
func (d *Dispatcher) Call(ctx context.Context, id models.SourceID, req sources.Request) ([]models.MediaReference, error) {
	ctx = logging.EnsureCorrelationID(ctx)
	if !req.Op.Valid() {
		return nil, sources.InvalidArgument("unknown operation %q", req.Op)
	}
	d.mu.RLock()
	r, ok := d.byID[id]
	d.mu.RUnlock()
	if !ok {
		return nil, sources.InvalidArgument("source %q is not registered", id)
	}
	if err := sources.CheckKind(r.src, req.Kind); err != nil {
		return nil, err
	}
	return d.task(ctx, r, req)
}

func validate(req *Request) error {
	if !req.Op.Valid() {
		return sources.InvalidArgument("unknown operation %q", req.Op)
	}
	if req.Op == sources.OpSearch {
		q, err := sources.CheckQuery(req.Query)
		if err != nil {
			return err
		}
		req.Query = q
	}
	if req.Limit <= 0 {
		return sources.InvalidArgument("limit must be positive, got %d", req.Limit)
	}
	return nil
}

// plan resolves the requested types to their sources. Types are deduplicated
// and keep request order. Every requested type must have a source.
func (d *Dispatcher) plan(requested []models.MediaType) ([]models.MediaType, [][]*registered, error) {
	if len(requested) == 0 {
		requested = d.Types()
		if len(requested) == 0 {
			return nil, nil, sources.InvalidArgument("no sources registered")
		}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[models.MediaType]bool, len(requested))
	types := make([]models.MediaType, 0, len(requested))
	plan := make([][]*registered, 0, len(requested))
	for _, k := range requested {
		if !k.Valid() {
			return nil, nil, sources.InvalidArgument("unknown media type %q", k)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		regs := d.byType[k]
		if len(regs) == 0 {
			return nil, nil, sources.InvalidArgument("no source serves media type %q", k)
		}
		types = append(types, k)
		plan = append(plan, regs)
	}
	return types, plan, nil
}
