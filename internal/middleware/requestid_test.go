// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/marquee/internal/logging"
)

func serveWithRequestID(t *testing.T, header string) (responseID, contextID, correlationID string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contextID = logging.RequestIDFromContext(r.Context())
		correlationID = logging.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Header().Get(RequestIDHeader), contextID, correlationID
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	responseID, contextID, correlationID := serveWithRequestID(t, "")

	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("Response X-Request-ID is not a valid UUID: %v", err)
	}
	if contextID != responseID {
		t.Errorf("Context ID (%s) doesn't match response header ID (%s)", contextID, responseID)
	}
	if len(correlationID) != 8 {
		t.Errorf("Expected 8-character correlation ID, got %q", correlationID)
	}
}

func TestRequestID_PreservesUpstreamID(t *testing.T) {
	existingID := "upstream-proxy-id-12345"
	responseID, contextID, _ := serveWithRequestID(t, existingID)

	if responseID != existingID {
		t.Errorf("Expected X-Request-ID to be %s, got %s", existingID, responseID)
	}
	if contextID != existingID {
		t.Errorf("Expected context ID to be %s, got %s", existingID, contextID)
	}
}

func TestRequestID_ReplacesUnusableID(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"too long", strings.Repeat("a", maxRequestIDLength+1)},
		{"contains space", "abc def"},
		{"contains newline", "abc\ndef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responseID, _, _ := serveWithRequestID(t, tt.id)
			if responseID == tt.id {
				t.Error("Expected unusable ID to be replaced")
			}
			if _, err := uuid.Parse(responseID); err != nil {
				t.Errorf("Expected generated UUID, got %q", responseID)
			}
		})
	}
}

func TestRequestID_ConcurrentRequestsAreUnique(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	const n = 50
	var (
		mu  sync.Mutex
		ids = make(map[string]bool, n)
		wg  sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
			mu.Lock()
			ids[rec.Header().Get(RequestIDHeader)] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != n {
		t.Errorf("Expected %d unique request IDs, got %d", n, len(ids))
	}
}
