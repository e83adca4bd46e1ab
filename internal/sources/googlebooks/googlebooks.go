// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package googlebooks adapts the Google Books volumes API.
//
// The API has no trending or popularity feed. Both list operations query the
// configured subject: trending orders by publication date, popular by the
// API's relevance ranking.
package googlebooks

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

const (
	// DefaultBaseURL is the v1 API root.
	DefaultBaseURL = "https://www.googleapis.com/books/v1"
	// DefaultTopic is the subject used for list operations.
	DefaultTopic = "fiction"

	maxLimit = 40
)

// Source is the Google Books adapter.
type Source struct {
	http       *sources.HTTPClient
	apiKey     string
	topic      string
	maxResults int
	log        zerolog.Logger
}

var _ sources.CatalogSource = (*Source)(nil)

// New creates a Google Books adapter.
func New(opts sources.Options) *Source {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	maxResults := opts.MaxOr(maxLimit)
	if maxResults > maxLimit {
		maxResults = maxLimit
	}
	return &Source{
		http:       sources.NewHTTPClient(models.SourceGoogleBooks, opts.BaseURL, opts.UserAgent, opts.Timeout),
		apiKey:     opts.APIKey,
		topic:      opts.Topic,
		maxResults: maxResults,
		log:        logging.ForSource(string(models.SourceGoogleBooks)),
	}
}

// ID implements sources.CatalogSource.
func (s *Source) ID() models.SourceID { return models.SourceGoogleBooks }

// MediaTypes implements sources.CatalogSource.
func (s *Source) MediaTypes() []models.MediaType { return []models.MediaType{models.MediaTypeBook} }

// MaxResults implements sources.CatalogSource.
func (s *Source) MaxResults() int { return s.maxResults }

// Search runs a free-text volume search.
func (s *Source) Search(ctx context.Context, kind models.MediaType, query string, limit int) ([]models.MediaReference, error) {
	q, err := sources.CheckQuery(query)
	if err != nil {
		return nil, err
	}
	return s.volumes(ctx, sources.OpSearch, kind, limit, q, "relevance")
}

// Trending returns the newest volumes of the configured subject.
func (s *Source) Trending(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	return s.volumes(ctx, sources.OpTrending, kind, limit, "subject:"+s.topic, "newest")
}

// Popular returns the most relevant volumes of the configured subject.
func (s *Source) Popular(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	return s.volumes(ctx, sources.OpPopular, kind, limit, "subject:"+s.topic, "relevance")
}

func (s *Source) volumes(ctx context.Context, op sources.Operation, kind models.MediaType, limit int, q, orderBy string) ([]models.MediaReference, error) {
	if err := sources.CheckKind(s, kind); err != nil {
		return nil, err
	}
	n, err := sources.ClampLimit(limit, s.maxResults)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("orderBy", orderBy)
	params.Set("printType", "books")
	params.Set("maxResults", strconv.Itoa(n))
	if s.apiKey != "" {
		params.Set("key", s.apiKey)
	}

	var resp volumesResponse
	if err := s.http.GetJSON(ctx, op, "/volumes", params, nil, &resp); err != nil {
		return nil, err
	}

	refs := make([]models.MediaReference, 0, len(resp.Items))
	for i := range resp.Items {
		if ref, ok := resp.Items[i].toReference(); ok {
			refs = append(refs, ref)
		}
	}
	s.log.Debug().Str("operation", string(op)).Int("results", len(refs)).Msg("Google Books call complete")
	return sources.Truncate(refs, n), nil
}

type volumesResponse struct {
	TotalItems int          `json:"totalItems"`
	Items      []volumeItem `json:"items"`
}

type volumeItem struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title         string     `json:"title"`
	Subtitle      string     `json:"subtitle"`
	PublishedDate string     `json:"publishedDate"`
	Categories    []string   `json:"categories"`
	AverageRating *float64   `json:"averageRating"`
	ImageLinks    imageLinks `json:"imageLinks"`
}

type imageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

func (v *volumeItem) toReference() (models.MediaReference, bool) {
	info := v.VolumeInfo
	if v.ID == "" || info.Title == "" {
		return models.MediaReference{}, false
	}
	title := info.Title
	if info.Subtitle != "" {
		title += ": " + info.Subtitle
	}

	ref := models.NewReference(models.SourceGoogleBooks, v.ID, models.MediaTypeBook, title).
		WithReleaseDate(models.ParseReleaseDate(info.PublishedDate)).
		WithGenres(categoryGenres(info.Categories)...)

	cover := info.ImageLinks.Thumbnail
	if cover == "" {
		cover = info.ImageLinks.SmallThumbnail
	}
	if cover != "" {
		ref = ref.WithCover(strings.Replace(cover, "http://", "https://", 1))
	}
	// Ratings are 1-5 stars.
	if info.AverageRating != nil {
		ref = ref.WithRating(*info.AverageRating, 5)
	}
	return ref, true
}

// categoryGenres splits BISAC-style paths ("Fiction / Fantasy / General")
// into their meaningful segments.
func categoryGenres(categories []string) []string {
	var out []string
	for _, c := range categories {
		for _, part := range strings.Split(c, "/") {
			part = strings.TrimSpace(part)
			if part == "" || strings.EqualFold(part, "general") {
				continue
			}
			out = append(out, part)
		}
	}
	return out
}
