// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package lastfm

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

type albumSearchResponse struct {
	Results struct {
		AlbumMatches struct {
			Album []entry `json:"album"`
		} `json:"albummatches"`
	} `json:"results"`
}

type topTracksResponse struct {
	Tracks struct {
		Track []entry `json:"track"`
	} `json:"tracks"`
}

type topAlbumsResponse struct {
	Albums struct {
		Album []entry `json:"album"`
	} `json:"albums"`
}

// entry is an album or track. Search results carry the artist as a plain
// string, chart and tag results as an object.
type entry struct {
	Name   string  `json:"name"`
	MBID   string  `json:"mbid"`
	Artist artist  `json:"artist"`
	Image  []image `json:"image"`
}

type artist struct {
	Name string
}

func (a *artist) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &a.Name)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	a.Name = obj.Name
	return nil
}

type image struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

func (e *entry) toReference() (models.MediaReference, bool) {
	if e.Name == "" {
		return models.MediaReference{}, false
	}
	id := e.MBID
	if id == "" {
		if e.Artist.Name == "" {
			return models.MediaReference{}, false
		}
		id = e.Artist.Name + "/" + e.Name
	}
	title := e.Name
	if e.Artist.Name != "" {
		title = e.Artist.Name + " - " + e.Name
	}
	return models.NewReference(models.SourceLastFM, id, models.MediaTypeMusic, title).
		WithCover(largestImage(e.Image)), true
}

// largestImage returns the last non-empty URL; Last.fm lists sizes small to large.
func largestImage(images []image) string {
	for i := len(images) - 1; i >= 0; i-- {
		if images[i].URL != "" {
			return images[i].URL
		}
	}
	return ""
}

// Last.fm error codes (https://www.last.fm/api/errorcodes).
const (
	errAuthFailed      = 4
	errInvalidAPIKey   = 10
	errSuspendedAPIKey = 26
	errRateLimited     = 29
)

type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// classify maps Last.fm's in-body {"error":N} payloads, which arrive with
// HTTP 200 as well as 4xx statuses. Codes other than credential and quota
// failures (service offline, operation failed) are treated as unavailability.
func classify(_ int, body []byte) (error, string) {
	if !bytes.Contains(body, []byte(`"error"`)) {
		return nil, ""
	}
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil || e.Code == 0 {
		return nil, ""
	}
	detail := fmt.Sprintf("last.fm error %d: %s", e.Code, e.Message)
	switch e.Code {
	case errAuthFailed, errInvalidAPIKey, errSuspendedAPIKey:
		return sources.ErrUpstreamAuthFailed, detail
	case errRateLimited:
		return sources.ErrUpstreamRateLimited, detail
	default:
		return sources.ErrUpstreamUnavailable, detail
	}
}
