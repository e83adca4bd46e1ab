// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// MediaType is the kind of catalog item.
type MediaType string

// Supported media types.
const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeTVShow MediaType = "tv_show"
	MediaTypeGame   MediaType = "game"
	MediaTypeBook   MediaType = "book"
	MediaTypeMusic  MediaType = "music"
	MediaTypeComic  MediaType = "comic"
	MediaTypeManga  MediaType = "manga"
	MediaTypeAnime  MediaType = "anime"
)

// AllMediaTypes lists every media type in canonical order.
var AllMediaTypes = []MediaType{
	MediaTypeMovie,
	MediaTypeTVShow,
	MediaTypeGame,
	MediaTypeBook,
	MediaTypeMusic,
	MediaTypeComic,
	MediaTypeManga,
	MediaTypeAnime,
}

// Valid reports whether t is a known media type.
func (t MediaType) Valid() bool {
	for _, known := range AllMediaTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseMediaType converts user input ("movie", "TV_Show", " game ") to a MediaType.
// "tv" and "show" are accepted as aliases for tv_show.
func ParseMediaType(s string) (MediaType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "tv", "show", "tvshow", "tv-show":
		return MediaTypeTVShow, nil
	}
	t := MediaType(normalized)
	if !t.Valid() {
		return "", fmt.Errorf("unknown media type %q", s)
	}
	return t, nil
}

// ParseMediaTypes parses a list of media types, dropping blanks and duplicates
// while preserving first-seen order.
func ParseMediaTypes(values []string) ([]MediaType, error) {
	out := make([]MediaType, 0, len(values))
	seen := make(map[MediaType]struct{}, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		t, err := ParseMediaType(v)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// SourceID identifies an external catalog.
type SourceID string

// Known catalog sources.
const (
	SourceTMDB        SourceID = "tmdb"
	SourceIGDB        SourceID = "igdb"
	SourceGoogleBooks SourceID = "googlebooks"
	SourceLastFM      SourceID = "lastfm"
	SourceComicVine   SourceID = "comicvine"
	SourceAniList     SourceID = "anilist"
)

// AllSources lists every known catalog source.
var AllSources = []SourceID{
	SourceTMDB,
	SourceIGDB,
	SourceGoogleBooks,
	SourceLastFM,
	SourceComicVine,
	SourceAniList,
}

// Valid reports whether s is a known catalog source.
func (s SourceID) Valid() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

// RefKey is the dedup key of a MediaReference: (externalSource, externalId).
type RefKey struct {
	Source SourceID `json:"source"`
	ID     string   `json:"id"`
}

// String renders the key as "source:id".
func (k RefKey) String() string {
	return string(k.Source) + ":" + k.ID
}

// MediaReference is the normalized catalog record produced by every adapter.
type MediaReference struct {
	ExternalSource SourceID   `json:"external_source"`
	ExternalID     string     `json:"external_id"`
	MediaType      MediaType  `json:"media_type"`
	Title          string     `json:"title"`
	CoverImageURL  *string    `json:"cover_image_url,omitempty"`
	AverageRating  *float64   `json:"average_rating,omitempty"` // 0-10
	ReleaseDate    *time.Time `json:"release_date,omitempty"`
	Genres         []string   `json:"genres"`
}

// NewReference starts a MediaReference for adapter output. Optional fields
// are filled with the With* builders.
func NewReference(source SourceID, id string, kind MediaType, title string) MediaReference {
	return MediaReference{
		ExternalSource: source,
		ExternalID:     id,
		MediaType:      kind,
		Title:          strings.TrimSpace(title),
		Genres:         []string{},
	}
}

// Key returns the dedup key of the reference.
func (r *MediaReference) Key() RefKey {
	return RefKey{Source: r.ExternalSource, ID: r.ExternalID}
}

// RatingOrZero returns the average rating, treating a missing rating as 0.
func (r *MediaReference) RatingOrZero() float64 {
	if r.AverageRating == nil {
		return 0
	}
	return *r.AverageRating
}

// Clone returns a deep copy of the reference.
func (r *MediaReference) Clone() MediaReference {
	c := *r
	if r.CoverImageURL != nil {
		v := *r.CoverImageURL
		c.CoverImageURL = &v
	}
	if r.AverageRating != nil {
		v := *r.AverageRating
		c.AverageRating = &v
	}
	if r.ReleaseDate != nil {
		v := *r.ReleaseDate
		c.ReleaseDate = &v
	}
	if r.Genres != nil {
		c.Genres = append([]string(nil), r.Genres...)
	}
	return c
}

// CloneAll deep-copies a slice of references. A nil input yields nil.
func CloneAll(refs []MediaReference) []MediaReference {
	if refs == nil {
		return nil
	}
	out := make([]MediaReference, len(refs))
	for i := range refs {
		out[i] = refs[i].Clone()
	}
	return out
}

// WithCover sets the cover image URL. An empty URL leaves it unset.
func (r MediaReference) WithCover(url string) MediaReference {
	url = strings.TrimSpace(url)
	if url == "" {
		r.CoverImageURL = nil
		return r
	}
	r.CoverImageURL = &url
	return r
}

// WithRating sets the rating from a native scale [0, max]. Non-positive max
// and non-finite values leave the rating unset.
func (r MediaReference) WithRating(value, max float64) MediaReference {
	if max <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		r.AverageRating = nil
		return r
	}
	scaled := NormalizeRating(value, max)
	r.AverageRating = &scaled
	return r
}

// WithReleaseDate sets the release date. A zero time leaves it unset.
func (r MediaReference) WithReleaseDate(t time.Time) MediaReference {
	if t.IsZero() {
		r.ReleaseDate = nil
		return r
	}
	utc := t.UTC()
	r.ReleaseDate = &utc
	return r
}

// WithGenres replaces the genre set.
func (r MediaReference) WithGenres(genres ...string) MediaReference {
	r.Genres = NormalizeGenres(genres)
	return r
}

// NormalizeRating maps value on [0, max] to [0, 10], clamping out-of-range
// input and rounding to two decimals.
func NormalizeRating(value, max float64) float64 {
	scaled := value / max * 10
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 10 {
		scaled = 10
	}
	return math.Round(scaled*100) / 100
}

// NormalizeGenres lowercases, trims, de-duplicates and sorts genre names.
func NormalizeGenres(genres []string) []string {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		set[g] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// ParseReleaseDate parses the partial date formats catalogs return:
// "2006-01-02", "2006-01" and "2006". Unparseable input yields the zero time.
func ParseReleaseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if len(s) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
