// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/aggregate"
	"github.com/tomtom215/marquee/internal/dispatch"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
)

// Catalog is the aggregator surface the handlers depend on.
type Catalog interface {
	Search(ctx context.Context, req aggregate.SearchRequest) ([]models.MediaReference, error)
	Trending(ctx context.Context, types []models.MediaType, limit int) (map[models.MediaType][]models.MediaReference, error)
	Popular(ctx context.Context, types []models.MediaType, limit int, weights map[models.RefKey]float64) ([]models.MediaReference, error)
	Sources() []dispatch.SourceStatus
	Types() []models.MediaType
}

var _ Catalog = (*aggregate.Aggregator)(nil)

// Handler serves the catalog endpoints.
type Handler struct {
	catalog   Catalog
	version   string
	startTime time.Time
}

// NewHandler creates a handler over catalog.
func NewHandler(catalog Catalog, version string) *Handler {
	return &Handler{
		catalog:   catalog,
		version:   version,
		startTime: time.Now(),
	}
}

// Search handles GET /api/v1/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, err := intParam(r, "limit")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	params := SearchParams{
		Query: r.URL.Query().Get("q"),
		Types: listParam(r, "type"),
		Limit: limit,
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}
	types, err := mediaTypes(params.Types)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	refs, err := h.catalog.Search(r.Context(), aggregate.SearchRequest{
		Query: params.Query,
		Types: types,
		Limit: params.Limit,
	})
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("query", params.Query).
		Int("results", len(refs)).
		Msg("Search served")
	rw.SuccessList(refs, len(refs))
}

// Trending handles GET /api/v1/trending. Data maps media type to its ranked list.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, err := intParam(r, "limit")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	params := TrendingParams{Types: listParam(r, "types"), Limit: limit}
	if apiErr := validateRequest(&params); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}
	types, err := mediaTypes(params.Types)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	byType, err := h.catalog.Trending(r.Context(), types, params.Limit)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	total := 0
	for _, refs := range byType {
		total += len(refs)
	}
	rw.SuccessList(byType, total)
}

// Popular handles POST /api/v1/popular. An empty body requests every type
// at the default limit with no engagement weights.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPopularBytes))
	if err != nil {
		rw.BadRequest("Request body too large or unreadable")
		return
	}
	var req PopularRequest
	if len(bytes.TrimSpace(body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			rw.BadRequest("Invalid JSON body: " + err.Error())
			return
		}
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}
	types, err := mediaTypes(req.Types)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	weights, err := weightMap(req.Weights)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	refs, err := h.catalog.Popular(r.Context(), types, req.Limit, weights)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.SuccessList(refs, len(refs))
}

// Sources handles GET /api/v1/sources.
func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	statuses := h.catalog.Sources()
	NewResponseWriter(w, r).SuccessList(statuses, len(statuses))
}

// Types handles GET /api/v1/types: the media types with at least one source.
func (h *Handler) Types(w http.ResponseWriter, r *http.Request) {
	types := h.catalog.Types()
	NewResponseWriter(w, r).SuccessList(types, len(types))
}

// HealthStatus is the payload of the health endpoints.
type HealthStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Sources       int     `json:"sources"`
	OpenCircuits  int     `json:"open_circuits"`
}

// HealthLive handles GET /api/v1/health/live. It only proves the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(HealthStatus{
		Status:        "alive",
		Version:       h.version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready. The service is ready when at
// least one source is registered and not every circuit is open.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	statuses := h.catalog.Sources()
	open := 0
	for _, s := range statuses {
		if s.Breaker == "open" {
			open++
		}
	}

	health := HealthStatus{
		Status:        "ready",
		Version:       h.version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Sources:       len(statuses),
		OpenCircuits:  open,
	}
	rw := NewResponseWriter(w, r)
	if len(statuses) == 0 || open == len(statuses) {
		health.Status = "not_ready"
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "No usable catalog source", health)
		return
	}
	rw.Success(health)
}

// NotFound writes the envelope for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).NotFound("No route for " + r.URL.Path)
}

// MethodNotAllowed writes the envelope for a known route with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).MethodNotAllowed()
}
