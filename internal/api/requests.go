// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
	"github.com/tomtom215/marquee/internal/validation"
)

// maxPopularBytes bounds the POST /popular body.
const maxPopularBytes = 256 << 10

// SearchParams are the query parameters of GET /search.
type SearchParams struct {
	Query string   `query:"q" validate:"required,max=256"`
	Types []string `query:"type" validate:"max=8,dive,media_type"`
	Limit int      `query:"limit"`
}

// TrendingParams are the query parameters of GET /trending.
type TrendingParams struct {
	Types []string `query:"types" validate:"max=8,dive,media_type"`
	Limit int      `query:"limit"`
}

// PopularRequest is the body of POST /popular.
type PopularRequest struct {
	Types   []string        `json:"types" validate:"max=8,dive,media_type"`
	Limit   int             `json:"limit"`
	Weights []WeightRequest `json:"weights" validate:"max=1000,dive"`
}

// WeightRequest carries one engagement weight for a reference.
type WeightRequest struct {
	Source string  `json:"source" validate:"required,source_id"`
	ID     string  `json:"id" validate:"required,max=128"`
	Weight float64 `json:"weight" validate:"gte=0"`
}

// validateRequest validates v and converts failures into the envelope's error form.
func validateRequest(v interface{}) *validation.APIError {
	if err := validation.ValidateStruct(v); err != nil {
		return err.ToAPIError()
	}
	return nil
}

// listParam reads a list parameter given as repeated keys, comma-separated
// values or both: ?type=movie&type=game or ?type=movie,game.
func listParam(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// intParam reads an optional integer parameter. Absent or blank yields 0.
func intParam(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// mediaTypes converts validated type strings, applying the same aliases.
func mediaTypes(values []string) ([]models.MediaType, error) {
	types, err := models.ParseMediaTypes(values)
	if err != nil {
		return nil, sources.InvalidArgument("%v", err)
	}
	return types, nil
}

// weightMap converts the weight list. A reference listed twice is rejected.
func weightMap(weights []WeightRequest) (map[models.RefKey]float64, error) {
	if len(weights) == 0 {
		return nil, nil
	}
	out := make(map[models.RefKey]float64, len(weights))
	for _, w := range weights {
		key := models.RefKey{Source: models.SourceID(w.Source), ID: w.ID}
		if _, dup := out[key]; dup {
			return nil, sources.InvalidArgument("weight for %s listed more than once", key)
		}
		out[key] = w.Weight
	}
	return out, nil
}
