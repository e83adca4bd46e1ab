// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package anilist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

const pageFixture = `{"data":{"Page":{"media":[
  {"id":16498,"title":{"romaji":"Shingeki no Kyojin","english":"Attack on Titan"},"coverImage":{"large":"https://al/aot.jpg"},"averageScore":85,"startDate":{"year":2013,"month":4,"day":7},"genres":["Action","Drama"]},
  {"id":1,"title":{"romaji":"Cowboy Bebop","english":null},"coverImage":{"large":""},"averageScore":null,"startDate":{"year":1998,"month":null,"day":null},"genres":[]},
  {"id":2,"title":{"romaji":"","english":""}}
]}}}`

func newTestSource(t *testing.T, capture *graphQLRequest, status int, body string) *Source {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON POST, got %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("Decode request: %v", err)
			}
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return New(sources.Options{BaseURL: server.URL, Timeout: time.Second})
}

func TestSearchAnime(t *testing.T) {
	var req graphQLRequest
	src := newTestSource(t, &req, http.StatusOK, pageFixture)

	refs, err := src.Search(context.Background(), models.MediaTypeAnime, "titan", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if req.Variables["search"] != "titan" || req.Variables["type"] != "ANIME" {
		t.Errorf("Unexpected variables %v", req.Variables)
	}
	if req.Variables["perPage"] != float64(10) {
		t.Errorf("Expected perPage 10, got %v", req.Variables["perPage"])
	}
	if len(refs) != 2 {
		t.Fatalf("Expected 2 references, got %d", len(refs))
	}

	aot := refs[0]
	if aot.Title != "Attack on Titan" || aot.ExternalID != "16498" || aot.MediaType != models.MediaTypeAnime {
		t.Errorf("Unexpected reference %+v", aot)
	}
	if aot.AverageRating == nil || *aot.AverageRating != 8.5 {
		t.Errorf("Expected rating 8.5, got %v", aot.AverageRating)
	}
	if aot.ReleaseDate == nil || !aot.ReleaseDate.Equal(time.Date(2013, time.April, 7, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected release date %v", aot.ReleaseDate)
	}
	if len(aot.Genres) != 2 || aot.Genres[0] != "action" {
		t.Errorf("Unexpected genres %v", aot.Genres)
	}

	bebop := refs[1]
	if bebop.Title != "Cowboy Bebop" {
		t.Errorf("Expected romaji fallback, got %q", bebop.Title)
	}
	if bebop.AverageRating != nil || bebop.CoverImageURL != nil {
		t.Error("Expected missing score and cover to stay unset")
	}
	if bebop.ReleaseDate == nil || bebop.ReleaseDate.Month() != time.January {
		t.Errorf("Expected year-only date to default to January, got %v", bebop.ReleaseDate)
	}
}

func TestListSortsAndManga(t *testing.T) {
	tests := []struct {
		name string
		call func(*Source) ([]models.MediaReference, error)
		sort string
	}{
		{"trending", func(s *Source) ([]models.MediaReference, error) {
			return s.Trending(context.Background(), models.MediaTypeManga, 5)
		}, "TRENDING_DESC"},
		{"popular", func(s *Source) ([]models.MediaReference, error) {
			return s.Popular(context.Background(), models.MediaTypeManga, 5)
		}, "POPULARITY_DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req graphQLRequest
			src := newTestSource(t, &req, http.StatusOK, pageFixture)
			refs, err := tt.call(src)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if req.Variables["type"] != "MANGA" {
				t.Errorf("Expected MANGA, got %v", req.Variables["type"])
			}
			sorts, _ := req.Variables["sort"].([]interface{})
			if len(sorts) != 1 || sorts[0] != tt.sort {
				t.Errorf("Expected sort %s, got %v", tt.sort, req.Variables["sort"])
			}
			if _, ok := req.Variables["search"]; ok {
				t.Error("Expected no search variable for list queries")
			}
			if len(refs) == 0 || refs[0].MediaType != models.MediaTypeManga {
				t.Errorf("Expected manga references, got %+v", refs)
			}
		})
	}
}

func TestGraphQLErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"too many requests", http.StatusTooManyRequests, `{"errors":[{"message":"Too Many Requests.","status":429}],"data":null}`, sources.ErrUpstreamRateLimited},
		{"error with 200", http.StatusOK, `{"errors":[{"message":"Internal","status":500}],"data":null}`, sources.ErrUpstreamUnavailable},
		{"no data", http.StatusOK, `{"data":null}`, sources.ErrUpstreamMalformedResponse},
		{"not json", http.StatusOK, `<html>`, sources.ErrUpstreamMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t, nil, tt.status, tt.body)
			_, err := src.Trending(context.Background(), models.MediaTypeAnime, 5)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUnsupportedKind(t *testing.T) {
	src := New(sources.Options{})
	if _, err := src.Trending(context.Background(), models.MediaTypeComic, 5); !errors.Is(err, sources.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}
