// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package comicvine adapts the Comic Vine API. References are comic volumes
// (series); Comic Vine has no ratings or genre vocabulary for them.
package comicvine

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

const (
	// DefaultBaseURL is the API root.
	DefaultBaseURL = "https://comicvine.gamespot.com/api"

	maxLimit = 100
	// maxSearchLimit is the page size of the /search resource.
	maxSearchLimit = 10

	volumeFields = "id,name,image,start_year"
)

// Source is the Comic Vine adapter.
type Source struct {
	http       *sources.HTTPClient
	apiKey     string
	maxResults int
	log        zerolog.Logger
}

var _ sources.CatalogSource = (*Source)(nil)

// New creates a Comic Vine adapter. Comic Vine rejects requests without a
// User-Agent, so opts.UserAgent should be set.
func New(opts sources.Options) *Source {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	maxResults := opts.MaxOr(maxLimit)
	if maxResults > maxLimit {
		maxResults = maxLimit
	}
	hc := sources.NewHTTPClient(models.SourceComicVine, opts.BaseURL, opts.UserAgent, opts.Timeout)
	hc.Classify = classify
	return &Source{
		http:       hc,
		apiKey:     opts.APIKey,
		maxResults: maxResults,
		log:        logging.ForSource(string(models.SourceComicVine)),
	}
}

// ID implements sources.CatalogSource.
func (s *Source) ID() models.SourceID { return models.SourceComicVine }

// MediaTypes implements sources.CatalogSource.
func (s *Source) MediaTypes() []models.MediaType { return []models.MediaType{models.MediaTypeComic} }

// MaxResults implements sources.CatalogSource.
func (s *Source) MaxResults() int { return s.maxResults }

// Search queries /search restricted to volumes.
func (s *Source) Search(ctx context.Context, kind models.MediaType, query string, limit int) ([]models.MediaReference, error) {
	q, err := sources.CheckQuery(query)
	if err != nil {
		return nil, err
	}
	maxResults := s.maxResults
	if maxResults > maxSearchLimit {
		maxResults = maxSearchLimit
	}
	params := url.Values{}
	params.Set("query", q)
	params.Set("resources", "volume")
	return s.list(ctx, sources.OpSearch, kind, limit, maxResults, "/search/", params)
}

// Trending lists the most recently updated volumes.
func (s *Source) Trending(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	params := url.Values{}
	params.Set("sort", "date_last_updated:desc")
	return s.list(ctx, sources.OpTrending, kind, limit, s.maxResults, "/volumes/", params)
}

// Popular lists volumes with the most issues.
func (s *Source) Popular(ctx context.Context, kind models.MediaType, limit int) ([]models.MediaReference, error) {
	params := url.Values{}
	params.Set("sort", "count_of_issues:desc")
	return s.list(ctx, sources.OpPopular, kind, limit, s.maxResults, "/volumes/", params)
}

func (s *Source) list(ctx context.Context, op sources.Operation, kind models.MediaType, limit, maxResults int, path string, params url.Values) ([]models.MediaReference, error) {
	if err := sources.CheckKind(s, kind); err != nil {
		return nil, err
	}
	n, err := sources.ClampLimit(limit, maxResults)
	if err != nil {
		return nil, err
	}

	params.Set("api_key", s.apiKey)
	params.Set("format", "json")
	params.Set("field_list", volumeFields)
	params.Set("limit", strconv.Itoa(n))

	var resp listResponse
	if err := s.http.GetJSON(ctx, op, path, params, nil, &resp); err != nil {
		return nil, err
	}

	refs := make([]models.MediaReference, 0, len(resp.Results))
	for i := range resp.Results {
		if ref, ok := resp.Results[i].toReference(); ok {
			refs = append(refs, ref)
		}
	}
	s.log.Debug().Str("operation", string(op)).Int("results", len(refs)).Msg("Comic Vine call complete")
	return sources.Truncate(refs, n), nil
}

type listResponse struct {
	Error      string   `json:"error"`
	StatusCode int      `json:"status_code"`
	Results    []volume `json:"results"`
}

type volume struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	StartYear yearString   `json:"start_year"`
	Image     *volumeImage `json:"image"`
}

type volumeImage struct {
	OriginalURL string `json:"original_url"`
	MediumURL   string `json:"medium_url"`
}

// yearString accepts start_year as a string, a number or null.
type yearString string

func (y *yearString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*y = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = yearString(s)
		return nil
	}
	*y = yearString(data)
	return nil
}

func (v *volume) toReference() (models.MediaReference, bool) {
	if v.ID == 0 || v.Name == "" {
		return models.MediaReference{}, false
	}
	ref := models.NewReference(models.SourceComicVine, strconv.FormatInt(v.ID, 10), models.MediaTypeComic, v.Name).
		WithReleaseDate(models.ParseReleaseDate(string(v.StartYear)))
	if v.Image != nil {
		cover := v.Image.MediumURL
		if cover == "" {
			cover = v.Image.OriginalURL
		}
		ref = ref.WithCover(cover)
	}
	return ref, true
}

// Comic Vine status codes carried in every response body.
const (
	statusOK          = 1
	statusInvalidKey  = 100
	statusRateLimited = 107
)

// classify maps the in-body status_code. Comic Vine answers most failures
// with HTTP 200 and a non-OK code.
func classify(_ int, body []byte) (error, string) {
	var head struct {
		Error      string `json:"error"`
		StatusCode int    `json:"status_code"`
	}
	if err := json.Unmarshal(body, &head); err != nil || head.StatusCode == 0 || head.StatusCode == statusOK {
		return nil, ""
	}
	detail := fmt.Sprintf("comic vine status %d: %s", head.StatusCode, head.Error)
	switch head.StatusCode {
	case statusInvalidKey:
		return sources.ErrUpstreamAuthFailed, detail
	case statusRateLimited:
		return sources.ErrUpstreamRateLimited, detail
	default:
		return sources.ErrUpstreamUnavailable, detail
	}
}
