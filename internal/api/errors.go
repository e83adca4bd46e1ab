// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/marquee/internal/dispatch"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

// SourceFailureDetail describes one failed source in a 502 response.
type SourceFailureDetail struct {
	Source    models.SourceID   `json:"source"`
	Operation sources.Operation `json:"operation"`
	Kind      string            `json:"kind"`
	Status    int               `json:"status,omitempty"`
}

// respondServiceError maps an aggregator error onto the envelope.
func respondServiceError(rw *ResponseWriter, err error) {
	ctx := rw.r.Context()
	switch {
	case errors.Is(err, sources.ErrInvalidArgument):
		rw.BadRequest(strings.TrimPrefix(err.Error(), sources.ErrInvalidArgument.Error()+": "))

	case errors.Is(err, dispatch.ErrAllSourcesFailed):
		failures := sourceFailures(err)
		logging.Ctx(ctx).Warn().Int("failures", len(failures)).Msg("Every catalog source failed")
		rw.ErrorWithDetails(http.StatusBadGateway, ErrCodeExternalServiceFail, "All catalog sources failed", failures)

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		rw.ServiceUnavailable("Request cancelled before completion")

	default:
		logging.Ctx(ctx).Error().Err(err).Msg("Unhandled aggregator error")
		rw.InternalError("Internal error")
	}
}

// sourceFailures collects every typed source failure in err's tree.
func sourceFailures(err error) []SourceFailureDetail {
	out := []SourceFailureDetail{}
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if se, ok := e.(*sources.Error); ok {
			out = append(out, SourceFailureDetail{
				Source:    se.Source,
				Operation: se.Op,
				Kind:      sources.KindName(se),
				Status:    se.Status,
			})
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}
