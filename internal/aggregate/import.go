// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

// ErrNoImportSink is returned by Import when no sink is configured.
var ErrNoImportSink = errors.New("no import sink configured")

// ImportSink persists a record the caller selected. The aggregator itself
// never stores references.
type ImportSink interface {
	Import(ctx context.Context, ref models.MediaReference) error
}

// ImportFunc adapts a function to ImportSink.
type ImportFunc func(ctx context.Context, ref models.MediaReference) error

// Import calls f.
func (f ImportFunc) Import(ctx context.Context, ref models.MediaReference) error {
	return f(ctx, ref)
}

// Import validates ref and hands a copy to the configured sink.
func (a *Aggregator) Import(ctx context.Context, ref models.MediaReference) error {
	if a.sink == nil {
		return ErrNoImportSink
	}
	if err := validateReference(&ref); err != nil {
		return err
	}
	if err := a.sink.Import(ctx, ref.Clone()); err != nil {
		return fmt.Errorf("import %s: %w", ref.Key(), err)
	}
	a.log.Info().
		Str("source", string(ref.ExternalSource)).
		Str("external_id", ref.ExternalID).
		Str("media_type", string(ref.MediaType)).
		Msg("Reference imported")
	return nil
}

func validateReference(ref *models.MediaReference) error {
	switch {
	case ref.ExternalSource == "":
		return sources.InvalidArgument("external source is required")
	case strings.TrimSpace(ref.ExternalID) == "":
		return sources.InvalidArgument("external id is required")
	case !ref.MediaType.Valid():
		return sources.InvalidArgument("unknown media type %q", ref.MediaType)
	case strings.TrimSpace(ref.Title) == "":
		return sources.InvalidArgument("title is required")
	case ref.AverageRating != nil && (*ref.AverageRating < 0 || *ref.AverageRating > 10):
		return sources.InvalidArgument("rating %.2f is outside 0-10", *ref.AverageRating)
	}
	return nil
}
