// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package igdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

const gamesFixture = `[
  {"id": 1025, "name": "Zelda II", "cover": {"image_id": "co1uii"}, "total_rating": 73.5, "first_release_date": 537580800, "genres": [{"name": "Role-playing (RPG)"}, {"name": "Adventure"}]},
  {"id": 7346, "name": "Breath of the Wild", "genres": []},
  {"id": 0, "name": "ignored"}
]`

// fakeIGDB serves both the identity endpoint and the catalog.
type fakeIGDB struct {
	tokenCalls  atomic.Int32
	gameCalls   atomic.Int32
	tokenStatus int
	// rejectToken makes /games answer 401 for this bearer value.
	rejectToken string
	lastBody    atomic.Value
}

func (f *fakeIGDB) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			n := f.tokenCalls.Add(1)
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm() error = %v", err)
			}
			if r.PostForm.Get("grant_type") != "client_credentials" || r.PostForm.Get("client_id") != "cid" || r.PostForm.Get("client_secret") != "csecret" {
				t.Errorf("Unexpected token form %v", r.PostForm)
			}
			w.Header().Set("Content-Type", "application/json")
			if f.tokenStatus != 0 {
				w.WriteHeader(f.tokenStatus)
				w.Write([]byte(`{"status":401,"message":"invalid client secret"}`))
				return
			}
			fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600,"token_type":"bearer"}`, n)
		case "/v4/games":
			f.gameCalls.Add(1)
			if r.Method != http.MethodPost {
				t.Errorf("Expected POST, got %s", r.Method)
			}
			if r.Header.Get("Client-ID") != "cid" {
				t.Error("Expected Client-ID header")
			}
			body, _ := io.ReadAll(r.Body)
			f.lastBody.Store(string(body))
			if r.Header.Get("Authorization") == "Bearer "+f.rejectToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(gamesFixture))
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestSource(t *testing.T, f *fakeIGDB) *Source {
	t.Helper()
	server := httptest.NewServer(f.handler(t))
	t.Cleanup(server.Close)
	return New(sources.Options{
		BaseURL:      server.URL + "/v4",
		TokenURL:     server.URL + "/oauth2/token",
		ClientID:     "cid",
		ClientSecret: "csecret",
		Timeout:      time.Second,
	})
}

func TestSearchGames(t *testing.T) {
	f := &fakeIGDB{}
	src := newTestSource(t, f)

	refs, err := src.Search(context.Background(), models.MediaTypeGame, `zelda "ii"`, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("Expected 2 references, got %d", len(refs))
	}

	body, _ := f.lastBody.Load().(string)
	if !strings.Contains(body, `search "zelda \"ii\"";`) || !strings.Contains(body, "limit 10;") {
		t.Errorf("Unexpected Apicalypse body %q", body)
	}

	z := refs[0]
	if z.ExternalID != "1025" || z.MediaType != models.MediaTypeGame {
		t.Errorf("Unexpected identity %+v", z)
	}
	if z.AverageRating == nil || *z.AverageRating != 7.35 {
		t.Errorf("Expected rating 7.35, got %v", z.AverageRating)
	}
	if z.CoverImageURL == nil || *z.CoverImageURL != CoverBaseURL+"co1uii.jpg" {
		t.Errorf("Unexpected cover %v", z.CoverImageURL)
	}
	if z.ReleaseDate == nil || z.ReleaseDate.Year() != 1987 {
		t.Errorf("Expected 1987 release, got %v", z.ReleaseDate)
	}
	if len(z.Genres) != 2 || z.Genres[0] != "adventure" || z.Genres[1] != "role-playing" {
		t.Errorf("Unexpected genres %v", z.Genres)
	}
	if refs[1].AverageRating != nil || refs[1].CoverImageURL != nil {
		t.Error("Expected missing rating and cover to stay unset")
	}
}

func TestTokenFetchedLazilyAndReused(t *testing.T) {
	f := &fakeIGDB{}
	src := newTestSource(t, f)

	if f.tokenCalls.Load() != 0 {
		t.Fatal("Expected no token exchange before the first call")
	}
	for i := 0; i < 3; i++ {
		if _, err := src.Popular(context.Background(), models.MediaTypeGame, 5); err != nil {
			t.Fatalf("Popular() error = %v", err)
		}
	}
	if got := f.tokenCalls.Load(); got != 1 {
		t.Errorf("Expected 1 token exchange, got %d", got)
	}
	body, _ := f.lastBody.Load().(string)
	if !strings.Contains(body, "sort total_rating_count desc;") {
		t.Errorf("Unexpected popular body %q", body)
	}
}

func TestRevokedTokenExchangedOnce(t *testing.T) {
	f := &fakeIGDB{rejectToken: "tok-1"}
	src := newTestSource(t, f)

	refs, err := src.Trending(context.Background(), models.MediaTypeGame, 5)
	if err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("Expected 2 references, got %d", len(refs))
	}
	if f.tokenCalls.Load() != 2 || f.gameCalls.Load() != 2 {
		t.Errorf("Expected 2 token and 2 game calls, got %d and %d", f.tokenCalls.Load(), f.gameCalls.Load())
	}
}

func TestRepeatedUnauthorizedIsAuthFailure(t *testing.T) {
	var gameCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth2/token" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"same","expires_in":3600}`))
			return
		}
		gameCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()
	src := New(sources.Options{BaseURL: server.URL, TokenURL: server.URL + "/oauth2/token", ClientID: "cid", ClientSecret: "x", Timeout: time.Second})

	_, err := src.Trending(context.Background(), models.MediaTypeGame, 5)
	if !errors.Is(err, sources.ErrUpstreamAuthFailed) {
		t.Fatalf("Expected ErrUpstreamAuthFailed, got %v", err)
	}
	if got := gameCalls.Load(); got != 2 {
		t.Errorf("Expected exactly one retry after 401, got %d calls", got)
	}
}

func TestTokenExchangeRejected(t *testing.T) {
	f := &fakeIGDB{tokenStatus: http.StatusUnauthorized}
	src := newTestSource(t, f)

	_, err := src.Search(context.Background(), models.MediaTypeGame, "zelda", 5)
	if !errors.Is(err, sources.ErrUpstreamAuthFailed) {
		t.Fatalf("Expected ErrUpstreamAuthFailed, got %v", err)
	}
	if f.gameCalls.Load() != 0 {
		t.Error("Expected no catalog call without a token")
	}
}

func TestTokenEndpointDown(t *testing.T) {
	src := New(sources.Options{
		BaseURL:      "http://127.0.0.1:1",
		TokenURL:     "http://127.0.0.1:1/oauth2/token",
		ClientID:     "cid",
		ClientSecret: "csecret",
		Timeout:      time.Second,
	})
	_, err := src.Search(context.Background(), models.MediaTypeGame, "zelda", 5)
	if !errors.Is(err, sources.ErrUpstreamUnavailable) {
		t.Fatalf("Expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestLimitClamped(t *testing.T) {
	f := &fakeIGDB{}
	src := newTestSource(t, f)

	if _, err := src.Trending(context.Background(), models.MediaTypeGame, 10000); err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	body, _ := f.lastBody.Load().(string)
	if !strings.Contains(body, "limit 500;") {
		t.Errorf("Expected limit clamped to 500, got %q", body)
	}
	if _, err := src.Trending(context.Background(), models.MediaTypeBook, 5); !errors.Is(err, sources.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for book, got %v", err)
	}
}

func TestTokenExchangeHonorsCallerDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Identity endpoint hangs until the client gives up.
		<-r.Context().Done()
	}))
	defer server.Close()
	src := New(sources.Options{
		BaseURL:      server.URL,
		TokenURL:     server.URL + "/oauth2/token",
		ClientID:     "cid",
		ClientSecret: "csecret",
		Timeout:      10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := src.Search(ctx, models.MediaTypeGame, "zelda", 5)
	if !errors.Is(err, sources.ErrUpstreamUnavailable) {
		t.Fatalf("Expected ErrUpstreamUnavailable, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Token exchange ignored the caller deadline, took %v", elapsed)
	}
}
