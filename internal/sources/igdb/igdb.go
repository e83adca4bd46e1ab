// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package igdb adapts the IGDB v4 games API. Requests carry a Twitch
// client-credentials bearer token and send Apicalypse query bodies.
package igdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

const (
	// DefaultBaseURL is the v4 API root.
	DefaultBaseURL = "https://api.igdb.com/v4"
	// DefaultTokenURL is the Twitch identity endpoint.
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"
	// CoverBaseURL prefixes cover image ids.
	CoverBaseURL = "https://images.igdb.com/igdb/image/upload/t_cover_big/"

	maxLimit = 500
	fields   = "fields name,cover.image_id,total_rating,first_release_date,genres.name;"
)

// Source is the IGDB adapter.
type Source struct {
	http       *sources.HTTPClient
	clientID   string
	tokens     *tokenCache
	maxResults int
	log        zerolog.Logger
}

var _ sources.CatalogSource = (*Source)(nil)

// New creates an IGDB adapter. No token is requested until the first call.
func New(opts sources.Options) *Source {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = DefaultTokenURL
	}
	maxResults := opts.MaxOr(maxLimit)
	if maxResults > maxLimit {
		maxResults = maxLimit
	}
	hc := sources.NewHTTPClient(models.SourceIGDB, opts.BaseURL, opts.UserAgent, opts.Timeout)
	return &Source{
		http:       hc,
		clientID:   opts.ClientID,
		tokens:     newTokenCache(opts.ClientID, opts.ClientSecret, opts.TokenURL, hc.Client),
		maxResults: maxResults,
		log:        logging.ForSource(string(models.SourceIGDB)),
	}
}

// ID implements sources.CatalogSource.
func (s *Source) ID() models.SourceID { return models.SourceIGDB }

// MediaTypes implements sources.CatalogSource.
func (s *Source) MediaTypes() []models.MediaType { return []models.MediaType{models.MediaTypeGame} }

// MaxResults implements sources.CatalogSource.
func (s *Source) MaxResults() int { return s.maxResults }

// Search runs a full-text game search.
func (s *Source) Search(ctx context.Context, kind models.MediaType, query string, limit int) ([]models.MediaReference, error) {
	q, err := sources.CheckQuery(query)
	if err != nil {
		return nil, err
	}
	return s.games(ctx, sources.OpSearch, kind, limit, fmt.Sprintf("search \"%s\";", escape(q)))
}

// Trending orders games by hype count.
func (s *Source) Trending(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	return s.games(ctx, sources.OpTrending, kind, limit, "where hypes != null; sort hypes desc;")
}

// Popular orders games by the number of ratings.
func (s *Source) Popular(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	return s.games(ctx, sources.OpPopular, kind, limit, "where total_rating_count != null; sort total_rating_count desc;")
}

func (s *Source) games(ctx context.Context, op sources.Operation, kind models.MediaType, limit int, clause string) ([]models.MediaReference, error) {
	if err := sources.CheckKind(s, kind); err != nil {
		return nil, err
	}
	n, err := sources.ClampLimit(limit, s.maxResults)
	if err != nil {
		return nil, err
	}

	body := fields + " " + clause + " limit " + strconv.Itoa(n) + ";"
	entries, err := s.post(ctx, op, body)
	if err != nil {
		return nil, err
	}

	refs := make([]models.MediaReference, 0, len(entries))
	for i := range entries {
		if ref, ok := entries[i].toReference(); ok {
			refs = append(refs, ref)
		}
	}
	s.log.Debug().Str("operation", string(op)).Int("results", len(refs)).Msg("IGDB call complete")
	return sources.Truncate(refs, n), nil
}

// post sends an Apicalypse body to /games. A 401 means the cached token was
// revoked early, so it is dropped and the request is made once more.
func (s *Source) post(ctx context.Context, op sources.Operation, body string) ([]gameEntry, error) {
	for attempt := 0; ; attempt++ {
		tok, err := s.tokens.Token(ctx)
		if err != nil {
			return nil, tokenError(op, err)
		}

		header := http.Header{}
		header.Set("Client-ID", s.clientID)
		header.Set("Authorization", "Bearer "+tok.AccessToken)

		var entries []gameEntry
		err = s.http.PostJSON(ctx, op, "/games", "text/plain", []byte(body), header, &entries)
		if err == nil {
			return entries, nil
		}

		var se *sources.Error
		if attempt == 0 && errors.As(err, &se) && se.Status == http.StatusUnauthorized {
			s.log.Info().Msg("IGDB rejected bearer token, exchanging credentials again")
			s.tokens.Invalidate()
			continue
		}
		return nil, err
	}
}

// escape makes q safe inside an Apicalypse string literal.
func escape(q string) string {
	q = strings.ReplaceAll(q, `\`, "")
	return strings.ReplaceAll(q, `"`, `\"`)
}

type gameEntry struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Cover            *imageRef  `json:"cover"`
	TotalRating      *float64   `json:"total_rating"`
	FirstReleaseDate int64      `json:"first_release_date"`
	Genres           []namedRef `json:"genres"`
}

type imageRef struct {
	ImageID string `json:"image_id"`
}

type namedRef struct {
	Name string `json:"name"`
}

func (g *gameEntry) toReference() (models.MediaReference, bool) {
	if g.ID == 0 || g.Name == "" {
		return models.MediaReference{}, false
	}
	ref := models.NewReference(models.SourceIGDB, strconv.FormatInt(g.ID, 10), models.MediaTypeGame, g.Name)
	if g.Cover != nil && g.Cover.ImageID != "" {
		ref = ref.WithCover(CoverBaseURL + g.Cover.ImageID + ".jpg")
	}
	if g.TotalRating != nil {
		ref = ref.WithRating(*g.TotalRating, 100)
	}
	if g.FirstReleaseDate > 0 {
		ref = ref.WithReleaseDate(time.Unix(g.FirstReleaseDate, 0))
	}
	genres := make([]string, 0, len(g.Genres))
	for _, genre := range g.Genres {
		genres = append(genres, genreName(genre.Name))
	}
	return ref.WithGenres(genres...), true
}

var genreAliases = map[string]string{
	"role-playing (rpg)":         "role-playing",
	"hack and slash/beat 'em up": "action",
	"real time strategy (rts)":   "strategy",
	"turn-based strategy (tbs)":  "strategy",
	"point-and-click":            "adventure",
	"card & board game":          "board game",
	"quiz/trivia":                "trivia",
	"moba":                       "strategy",
}

func genreName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := genreAliases[lower]; ok {
		return alias
	}
	return lower
}
