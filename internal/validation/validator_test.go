// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package validation

import (
	"strings"
	"testing"
)

type searchParams struct {
	Query string   `query:"q" validate:"required,max=16"`
	Limit int      `query:"limit" validate:"min=0,max=100"`
	Types []string `query:"type" validate:"max=3,dive,media_type"`
}

type weightBody struct {
	Source string  `json:"source" validate:"required,source_id"`
	ID     string  `json:"id" validate:"required"`
	Weight float64 `json:"weight" validate:"gte=0"`
	Note   string  `json:"-" validate:"max=2"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
	}{
		{name: "valid search", input: &searchParams{Query: "zelda", Limit: 5, Types: []string{"game", "TV"}}},
		{name: "missing query", input: &searchParams{}, wantField: "q", wantTag: "required"},
		{name: "query too long", input: &searchParams{Query: strings.Repeat("x", 17)}, wantField: "q", wantTag: "max"},
		{name: "limit too large", input: &searchParams{Query: "x", Limit: 101}, wantField: "limit", wantTag: "max"},
		{name: "unknown type", input: &searchParams{Query: "x", Types: []string{"vinyl"}}, wantField: "type[0]", wantTag: "media_type"},
		{name: "valid weight", input: &weightBody{Source: "tmdb", ID: "603", Weight: 2}},
		{name: "unknown source", input: &weightBody{Source: "imdb", ID: "tt1"}, wantField: "source", wantTag: "source_id"},
		{name: "negative weight", input: &weightBody{Source: "igdb", ID: "1", Weight: -1}, wantField: "weight", wantTag: "gte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation error")
			}
			got := err.Errors()[0]
			if got.Field() != tt.wantField || got.Tag() != tt.wantTag {
				t.Errorf("Expected %s/%s, got %s/%s", tt.wantField, tt.wantTag, got.Field(), got.Tag())
			}
		})
	}
}

func TestFieldNameSkipsDashTag(t *testing.T) {
	err := ValidateStruct(&weightBody{Source: "tmdb", ID: "1", Note: "long"})
	if err == nil {
		t.Fatal("Expected validation error")
	}
	// json:"-" has no wire name; validator falls back to the Go field name.
	if got := err.Errors()[0].Field(); got != "Note" {
		t.Errorf("Expected field Note, got %q", got)
	}
}

func TestToAPIError(t *testing.T) {
	single := ValidateStruct(&searchParams{}).ToAPIError()
	if single.Code != CodeValidationFailed {
		t.Errorf("Expected code %s, got %s", CodeValidationFailed, single.Code)
	}
	if single.Message != "q is required" {
		t.Errorf("Unexpected message %q", single.Message)
	}
	if single.Details["field"] != "q" {
		t.Errorf("Expected field detail q, got %v", single.Details["field"])
	}

	multi := ValidateStruct(&searchParams{Limit: 500}).ToAPIError()
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("Expected two field details, got %v", multi.Details)
	}
	if !strings.Contains(multi.Message, "q is required") || !strings.Contains(multi.Message, "limit must be at most 100") {
		t.Errorf("Unexpected combined message %q", multi.Message)
	}
}

func TestTranslateMinMaxUnits(t *testing.T) {
	err := ValidateStruct(&searchParams{Query: "x", Types: []string{"movie", "game", "book", "music"}})
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if got := err.Error(); got != "type must be at most 3 items" {
		t.Errorf("Unexpected message %q", got)
	}
}
