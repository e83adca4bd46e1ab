// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package tmdb adapts The Movie Database API (v3) for movies and TV shows.
package tmdb

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

const (
	// DefaultBaseURL is the v3 API root.
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// ImageBaseURL prefixes poster paths.
	ImageBaseURL = "https://image.tmdb.org/t/p/w500"
	// pageSize is fixed by the API.
	pageSize = 20
)

// Source is the TMDB adapter. It authenticates with the api_key query parameter.
type Source struct {
	http       *sources.HTTPClient
	apiKey     string
	maxResults int
	log        zerolog.Logger
}

var _ sources.CatalogSource = (*Source)(nil)

// New creates a TMDB adapter.
func New(opts sources.Options) *Source {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	maxResults := opts.MaxOr(pageSize)
	if maxResults > pageSize {
		maxResults = pageSize
	}
	return &Source{
		http:       sources.NewHTTPClient(models.SourceTMDB, opts.BaseURL, opts.UserAgent, opts.Timeout),
		apiKey:     opts.APIKey,
		maxResults: maxResults,
		log:        logging.ForSource(string(models.SourceTMDB)),
	}
}

// ID implements sources.CatalogSource.
func (s *Source) ID() models.SourceID { return models.SourceTMDB }

// MediaTypes implements sources.CatalogSource.
func (s *Source) MediaTypes() []models.MediaType {
	return []models.MediaType{models.MediaTypeMovie, models.MediaTypeTVShow}
}

// MaxResults implements sources.CatalogSource.
func (s *Source) MaxResults() int { return s.maxResults }

// Search queries /search/{movie|tv}.
func (s *Source) Search(ctx context.Context, kind models.MediaType, query string, limit int) ([]models.MediaReference, error) {
	q, err := sources.CheckQuery(query)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("query", q)
	params.Set("include_adult", "false")
	return s.list(ctx, sources.OpSearch, kind, limit, func(segment string) string {
		return "/search/" + segment
	}, params)
}

// Trending queries /trending/{movie|tv}/week.
func (s *Source) Trending(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	return s.list(ctx, sources.OpTrending, kind, limit, func(segment string) string {
		return "/trending/" + segment + "/week"
	}, url.Values{})
}

// Popular queries /{movie|tv}/popular.
func (s *Source) Popular(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	return s.list(ctx, sources.OpPopular, kind, limit, func(segment string) string {
		return "/" + segment + "/popular"
	}, url.Values{})
}

func (s *Source) list(ctx context.Context, op sources.Operation, kind models.MediaType, limit int, path func(segment string) string, params url.Values) ([]models.MediaReference, error) {
	if err := sources.CheckKind(s, kind); err != nil {
		return nil, err
	}
	n, err := sources.ClampLimit(limit, s.maxResults)
	if err != nil {
		return nil, err
	}

	params.Set("api_key", s.apiKey)
	params.Set("page", "1")

	var page pageResponse
	if err := s.http.GetJSON(ctx, op, path(segmentFor(kind)), params, nil, &page); err != nil {
		return nil, err
	}

	refs := make([]models.MediaReference, 0, len(page.Results))
	for i := range page.Results {
		if ref, ok := page.Results[i].toReference(kind); ok {
			refs = append(refs, ref)
		}
	}
	s.log.Debug().Str("operation", string(op)).Str("media_type", string(kind)).Int("results", len(refs)).Msg("TMDB call complete")
	return sources.Truncate(refs, n), nil
}

func segmentFor(kind models.MediaType) string {
	if kind == models.MediaTypeTVShow {
		return "tv"
	}
	return "movie"
}

type pageResponse struct {
	Page    int           `json:"page"`
	Results []resultEntry `json:"results"`
}

// resultEntry covers both movie and TV result shapes.
type resultEntry struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	PosterPath   string  `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	GenreIDs     []int   `json:"genre_ids"`
	MediaType    string  `json:"media_type"`
}

func (r *resultEntry) toReference(kind models.MediaType) (models.MediaReference, bool) {
	if r.ID == 0 {
		return models.MediaReference{}, false
	}
	title, date := r.Title, r.ReleaseDate
	if kind == models.MediaTypeTVShow {
		title, date = r.Name, r.FirstAirDate
	}
	if title == "" {
		return models.MediaReference{}, false
	}

	ref := models.NewReference(models.SourceTMDB, strconv.FormatInt(r.ID, 10), kind, title).
		WithReleaseDate(models.ParseReleaseDate(date)).
		WithGenres(genreNames(r.GenreIDs)...)
	if r.PosterPath != "" {
		ref = ref.WithCover(ImageBaseURL + r.PosterPath)
	}
	if r.VoteCount > 0 {
		ref = ref.WithRating(r.VoteAverage, 10)
	}
	return ref, true
}
