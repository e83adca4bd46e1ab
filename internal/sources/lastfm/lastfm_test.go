// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package lastfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

const searchFixture = `{"results":{"albummatches":{"album":[
  {"name":"Believe","artist":"Cher","mbid":"63b3a8ca-26f2-4e2b-b867-647a6ec2bebd","image":[{"#text":"https://img/s.png","size":"small"},{"#text":"https://img/xl.png","size":"extralarge"}]},
  {"name":"Believe","artist":"Disturbed","mbid":"","image":[]},
  {"name":"","artist":"Nobody","mbid":"x"}
]}}}`

const chartFixture = `{"tracks":{"track":[
  {"name":"Espresso","mbid":"","artist":{"name":"Sabrina Carpenter","mbid":"abc"},"image":[{"#text":"","size":"small"}]}
]}}`

func newServer(t *testing.T, method string, status int, body string) *Source {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("method") != method {
			t.Errorf("Expected method %s, got %s", method, q.Get("method"))
		}
		if q.Get("api_key") != "k" || q.Get("format") != "json" {
			t.Errorf("Expected api_key and format=json, got %v", q)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return New(sources.Options{BaseURL: server.URL, APIKey: "k", Topic: "jazz", Timeout: time.Second})
}

func TestSearchAlbums(t *testing.T) {
	src := newServer(t, "album.search", http.StatusOK, searchFixture)

	refs, err := src.Search(context.Background(), models.MediaTypeMusic, "believe", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("Expected 2 references, got %d", len(refs))
	}
	if refs[0].ExternalID != "63b3a8ca-26f2-4e2b-b867-647a6ec2bebd" || refs[0].Title != "Cher - Believe" {
		t.Errorf("Unexpected first reference %+v", refs[0])
	}
	if refs[0].CoverImageURL == nil || *refs[0].CoverImageURL != "https://img/xl.png" {
		t.Errorf("Expected largest image, got %v", refs[0].CoverImageURL)
	}
	if refs[1].ExternalID != "Disturbed/Believe" {
		t.Errorf("Expected artist/name id when mbid is empty, got %q", refs[1].ExternalID)
	}
	for _, r := range refs {
		if r.AverageRating != nil {
			t.Errorf("Expected no rating for %s", r.ExternalID)
		}
	}
}

func TestTrendingTracksWithArtistObject(t *testing.T) {
	src := newServer(t, "chart.gettoptracks", http.StatusOK, chartFixture)

	refs, err := src.Trending(context.Background(), models.MediaTypeMusic, 5)
	if err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	if len(refs) != 1 || refs[0].ExternalID != "Sabrina Carpenter/Espresso" {
		t.Fatalf("Unexpected references %+v", refs)
	}
	if refs[0].CoverImageURL != nil {
		t.Error("Expected empty image list to leave cover unset")
	}
}

func TestPopularUsesTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tag") != "jazz" {
			t.Errorf("Expected tag jazz, got %q", r.URL.Query().Get("tag"))
		}
		w.Write([]byte(`{"albums":{"album":[{"name":"Kind of Blue","mbid":"kob","artist":{"name":"Miles Davis"}}]}}`))
	}))
	defer server.Close()
	src := New(sources.Options{BaseURL: server.URL, APIKey: "k", Topic: "jazz", Timeout: time.Second})

	refs, err := src.Popular(context.Background(), models.MediaTypeMusic, 5)
	if err != nil {
		t.Fatalf("Popular() error = %v", err)
	}
	if len(refs) != 1 || refs[0].ExternalID != "kob" {
		t.Errorf("Unexpected references %+v", refs)
	}
}

func TestInBodyErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"invalid key with 200", http.StatusOK, `{"error":10,"message":"Invalid API key"}`, sources.ErrUpstreamAuthFailed},
		{"suspended key", http.StatusForbidden, `{"error":26,"message":"Suspended API key"}`, sources.ErrUpstreamAuthFailed},
		{"rate limit", http.StatusOK, `{"error":29,"message":"Rate limit exceeded"}`, sources.ErrUpstreamRateLimited},
		{"service offline", http.StatusOK, `{"error":11,"message":"Service Offline"}`, sources.ErrUpstreamUnavailable},
		{"html gateway error", http.StatusBadGateway, `<html>bad gateway</html>`, sources.ErrUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newServer(t, "chart.gettoptracks", tt.status, tt.body)
			_, err := src.Trending(context.Background(), models.MediaTypeMusic, 5)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestClassifyIgnoresRegularPayloads(t *testing.T) {
	if kind, _ := classify(http.StatusOK, []byte(searchFixture)); kind != nil {
		t.Errorf("Expected nil kind for result payload, got %v", kind)
	}
	if kind, _ := classify(http.StatusOK, []byte(`{"name":"error"}`)); kind != nil {
		t.Errorf("Expected nil kind when error appears only as a value, got %v", kind)
	}
}
