// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package lastfm adapts the Last.fm 2.0 API for music.
package lastfm

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
	// DefaultBaseURL is the 2.0 API root.
	DefaultBaseURL = "https://ws.audioscrobbler.com/2.0"
	// DefaultTopic is the tag used for popular albums.
	DefaultTopic = "rock"

	maxLimit = 50
)

// Source is the Last.fm adapter. Last.fm has no rating system, so every
// reference it returns is unrated.
type Source struct {
	http       *sources.HTTPClient
	apiKey     string
	tag        string
	maxResults int
	log        zerolog.Logger
}

var _ sources.CatalogSource = (*Source)(nil)

// New creates a Last.fm adapter.
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
	hc := sources.NewHTTPClient(models.SourceLastFM, opts.BaseURL, opts.UserAgent, opts.Timeout)
	hc.Classify = classify
	return &Source{
		http:       hc,
		apiKey:     opts.APIKey,
		tag:        opts.Topic,
		maxResults: maxResults,
		log:        logging.ForSource(string(models.SourceLastFM)),
	}
}

// ID implements sources.CatalogSource.
func (s *Source) ID() models.SourceID { return models.SourceLastFM }

// MediaTypes implements sources.CatalogSource.
func (s *Source) MediaTypes() []models.MediaType { return []models.MediaType{models.MediaTypeMusic} }

// MaxResults implements sources.CatalogSource.
func (s *Source) MaxResults() int { return s.maxResults }

// Search finds albums by name.
func (s *Source) Search(ctx context.Context, kind models.MediaType, query string, limit int) ([]models.MediaReference, error) {
	q, err := sources.CheckQuery(query)
	if err != nil {
		return nil, err
	}
	var resp albumSearchResponse
	entries, n, err := s.call(ctx, sources.OpSearch, kind, limit, "album.search", url.Values{"album": {q}}, &resp,
		func() []entry { return resp.Results.AlbumMatches.Album })
	if err != nil {
		return nil, err
	}
	return s.convert(sources.OpSearch, entries, n), nil
}

// Trending returns the global top tracks chart.
func (s *Source) Trending(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	var resp topTracksResponse
	entries, n, err := s.call(ctx, sources.OpTrending, kind, limit, "chart.gettoptracks", url.Values{}, &resp,
		func() []entry { return resp.Tracks.Track })
	if err != nil {
		return nil, err
	}
	return s.convert(sources.OpTrending, entries, n), nil
}

// Popular returns the top albums for the configured tag.
func (s *Source) Popular(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	var resp topAlbumsResponse
	entries, n, err := s.call(ctx, sources.OpPopular, kind, limit, "tag.gettopalbums", url.Values{"tag": {s.tag}}, &resp,
		func() []entry { return resp.Albums.Album })
	if err != nil {
		return nil, err
	}
	return s.convert(sources.OpPopular, entries, n), nil
}

// call validates the arguments, invokes method and extracts the entry list
// from the decoded response.
func (s *Source) call(ctx context.Context, op sources.Operation, kind models.MediaType, limit int, method string, params url.Values, out interface{}, extract func() []entry) ([]entry, int, error) {
	if err := sources.CheckKind(s, kind); err != nil {
		return nil, 0, err
	}
	n, err := sources.ClampLimit(limit, s.maxResults)
	if err != nil {
		return nil, 0, err
	}

	params.Set("method", method)
	params.Set("api_key", s.apiKey)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(n))
	params.Set("page", "1")

	if err := s.http.GetJSON(ctx, op, "/", params, nil, out); err != nil {
		return nil, 0, err
	}
	return extract(), n, nil
}

func (s *Source) convert(op sources.Operation, entries []entry, n int) []models.MediaReference {
	refs := make([]models.MediaReference, 0, len(entries))
	for i := range entries {
		if ref, ok := entries[i].toReference(); ok {
			refs = append(refs, ref)
		}
	}
	s.log.Debug().Str("operation", string(op)).Int("results", len(refs)).Msg("Last.fm call complete")
	return sources.Truncate(refs, n)
}
