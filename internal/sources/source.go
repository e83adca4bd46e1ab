// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package sources

import (
	"context"
	"strings"

	"github.com/tomtom215/marquee/internal/models"
)

// Operation is a logical catalog query.
type Operation string

// Supported operations.
const (
	OpSearch   Operation = "search"
	OpTrending Operation = "trending"
	OpPopular  Operation = "popular"
)

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	switch op {
	case OpSearch, OpTrending, OpPopular:
		return true
	}
	return false
}

// CatalogSource is one external catalog API. Each implementation owns its
// credential, request shapes and response schema, and returns only typed
// failures (see Error).
//
// Sources serving more than one media type take the type as the kind
// argument; a kind the source does not serve is ErrInvalidArgument.
type CatalogSource interface {
	// ID identifies the source.
	ID() models.SourceID
	// MediaTypes lists the media types the source serves.
	MediaTypes() []models.MediaType
	// MaxResults is the largest limit the source honors per call.
	MaxResults() int

	Search(ctx context.Context, kind models.MediaType, query string, limit int) ([]models.MediaReference, error)
	Trending(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error)
	Popular(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error)
}

// Request is one source invocation.
type Request struct {
	Op    Operation
	Kind  models.MediaType
	Query string
	Limit int
}

// Call invokes the operation named by req on src.
func Call(ctx context.Context, src CatalogSource, req Request) ([]models.MediaReference, error) {
	switch req.Op {
	case OpSearch:
		return src.Search(ctx, req.Kind, req.Query, req.Limit)
	case OpTrending:
		return src.Trending(ctx, req.Kind, req.Limit)
	case OpPopular:
		return src.Popular(ctx, req.Kind, req.Limit)
	default:
		return nil, InvalidArgument("unknown operation %q", req.Op)
	}
}

// Supports reports whether src serves kind.
func Supports(src CatalogSource, kind models.MediaType) bool {
	for _, k := range src.MediaTypes() {
		if k == kind {
			return true
		}
	}
	return false
}

// CheckKind returns ErrInvalidArgument when src does not serve kind.
func CheckKind(src CatalogSource, kind models.MediaType) error {
	if !Supports(src, kind) {
		return InvalidArgument("%s does not serve media type %q", src.ID(), kind)
	}
	return nil
}

// ClampLimit validates limit and caps it at max.
func ClampLimit(limit, max int) (int, error) {
	if limit <= 0 {
		return 0, InvalidArgument("limit must be positive, got %d", limit)
	}
	if max > 0 && limit > max {
		return max, nil
	}
	return limit, nil
}

// CheckQuery trims query and rejects an empty result.
func CheckQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", InvalidArgument("query must not be empty")
	}
	return q, nil
}
