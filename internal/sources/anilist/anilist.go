// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package anilist adapts the AniList GraphQL API for anime and manga. The
// public catalog needs no credential.
package anilist

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

const (
	// DefaultBaseURL is the GraphQL endpoint.
	DefaultBaseURL = "https://graphql.anilist.co"

	maxLimit = 50
)

const mediaQuery = `query ($page: Int, $perPage: Int, $search: String, $type: MediaType, $sort: [MediaSort]) {
  Page(page: $page, perPage: $perPage) {
    media(search: $search, type: $type, sort: $sort, isAdult: false) {
      id
      title { romaji english }
      coverImage { large }
      averageScore
      startDate { year month day }
      genres
    }
  }
}`

// Source is the AniList adapter. The media kind selects ANIME or MANGA.
type Source struct {
	http       *sources.HTTPClient
	maxResults int
	log        zerolog.Logger
}

var _ sources.CatalogSource = (*Source)(nil)

// New creates an AniList adapter.
func New(opts sources.Options) *Source {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	maxResults := opts.MaxOr(maxLimit)
	if maxResults > maxLimit {
		maxResults = maxLimit
	}
	hc := sources.NewHTTPClient(models.SourceAniList, opts.BaseURL, opts.UserAgent, opts.Timeout)
	hc.Classify = classify
	return &Source{
		http:       hc,
		maxResults: maxResults,
		log:        logging.ForSource(string(models.SourceAniList)),
	}
}

// ID implements sources.CatalogSource.
func (s *Source) ID() models.SourceID { return models.SourceAniList }

// MediaTypes implements sources.CatalogSource.
func (s *Source) MediaTypes() []models.MediaType {
	return []models.MediaType{models.MediaTypeAnime, models.MediaTypeManga}
}

// MaxResults implements sources.CatalogSource.
func (s *Source) MaxResults() int { return s.maxResults }

// Search matches titles of the given kind.
func (s *Source) Search(ctx context.Context, kind models.MediaType, query string, limit int) ([]models.MediaReference, error) {
	q, err := sources.CheckQuery(query)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, sources.OpSearch, kind, limit, q, "SEARCH_MATCH")
}

// Trending orders by AniList's trending score.
func (s *Source) Trending(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	return s.page(ctx, sources.OpTrending, kind, limit, "", "TRENDING_DESC")
}

// Popular orders by the number of users tracking the title.
func (s *Source) Popular(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	return s.page(ctx, sources.OpPopular, kind, limit, "", "POPULARITY_DESC")
}

func (s *Source) page(ctx context.Context, op sources.Operation, kind models.MediaType, limit int, search, sort string) ([]models.MediaReference, error) {
	if err := sources.CheckKind(s, kind); err != nil {
		return nil, err
	}
	n, err := sources.ClampLimit(limit, s.maxResults)
	if err != nil {
		return nil, err
	}

	vars := map[string]interface{}{
		"page":    1,
		"perPage": n,
		"type":    graphQLType(kind),
		"sort":    []string{sort},
	}
	if search != "" {
		vars["search"] = search
	}
	body, err := json.Marshal(graphQLRequest{Query: mediaQuery, Variables: vars})
	if err != nil {
		return nil, sources.NewError(models.SourceAniList, op, sources.ErrInvalidArgument, fmt.Errorf("encode query: %w", err))
	}

	var resp pageResponse
	if err := s.http.PostJSON(ctx, op, "/", "application/json", body, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, s.http.Fail(op, sources.ErrUpstreamMalformedResponse, 0, fmt.Errorf("response has no data"))
	}

	media := resp.Data.Page.Media
	refs := make([]models.MediaReference, 0, len(media))
	for i := range media {
		if ref, ok := media[i].toReference(kind); ok {
			refs = append(refs, ref)
		}
	}
	s.log.Debug().Str("operation", string(op)).Str("media_type", string(kind)).Int("results", len(refs)).Msg("AniList call complete")
	return sources.Truncate(refs, n), nil
}

func graphQLType(kind models.MediaType) string {
	if kind == models.MediaTypeManga {
		return "MANGA"
	}
	return "ANIME"
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type pageResponse struct {
	Data *pageData `json:"data"`
}

type pageData struct {
	Page struct {
		Media []mediaEntry `json:"media"`
	} `json:"Page"`
}

type mediaEntry struct {
	ID           int64      `json:"id"`
	Title        mediaTitle `json:"title"`
	CoverImage   coverImage `json:"coverImage"`
	AverageScore *float64   `json:"averageScore"`
	StartDate    fuzzyDate  `json:"startDate"`
	Genres       []string   `json:"genres"`
}

type mediaTitle struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
}

type coverImage struct {
	Large string `json:"large"`
}

// fuzzyDate is AniList's partial date; any component may be null.
type fuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

func (d fuzzyDate) Time() time.Time {
	if d.Year == nil || *d.Year <= 0 {
		return time.Time{}
	}
	month, day := 1, 1
	if d.Month != nil && *d.Month >= 1 && *d.Month <= 12 {
		month = *d.Month
		if d.Day != nil && *d.Day >= 1 && *d.Day <= 31 {
			day = *d.Day
		}
	}
	return time.Date(*d.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func (m *mediaEntry) toReference(kind models.MediaType) (models.MediaReference, bool) {
	title := m.Title.English
	if title == "" {
		title = m.Title.Romaji
	}
	if m.ID == 0 || title == "" {
		return models.MediaReference{}, false
	}
	ref := models.NewReference(models.SourceAniList, strconv.FormatInt(m.ID, 10), kind, title).
		WithCover(m.CoverImage.Large).
		WithReleaseDate(m.StartDate.Time()).
		WithGenres(m.Genres...)
	if m.AverageScore != nil {
		ref = ref.WithRating(*m.AverageScore, 100)
	}
	return ref, true
}

type graphQLErrors struct {
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// classify maps GraphQL error payloads. AniList mirrors the error status in
// the HTTP response, but some errors arrive with 200.
func classify(status int, body []byte) (error, string) {
	var e graphQLErrors
	if err := json.Unmarshal(body, &e); err != nil || len(e.Errors) == 0 {
		return nil, ""
	}
	first := e.Errors[0]
	code := first.Status
	if code == 0 {
		code = status
	}
	kind := sources.KindForStatus(code)
	if kind == nil {
		kind = sources.ErrUpstreamUnavailable
	}
	return kind, fmt.Sprintf("graphql error %d: %s", code, first.Message)
}
