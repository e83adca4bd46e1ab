// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built once and shared; it caches struct
// metadata, so repeated validation of the same request type is cheap.
// Field names in errors come from the json (or query) tag so messages refer
// to what the caller actually sent:
//
//	type SearchParams struct {
//	    Query string `query:"q" validate:"required,max=256"`
//	    Limit int    `query:"limit" validate:"min=0,max=100"`
//	}
//
//	if err := validation.ValidateStruct(&params); err != nil {
//	    apiErr := err.ToAPIError()
//	    // apiErr.Code == "VALIDATION_ERROR", apiErr.Message == "q is required"
//	}
//
// # Custom Tags
//
//   - media_type: value must be a known catalog media type (movie, game, ...)
//   - source_id: value must be a known catalog source (tmdb, igdb, ...)
//
// Both apply to strings and to the models package's named string types, and
// compose with dive for slices:
//
//	Types []string `validate:"dive,media_type"`
package validation
