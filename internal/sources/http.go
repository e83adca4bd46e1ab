// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package sources

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/models"
)

const (
	// maxErrorBodySize bounds how much of an error response is read.
	maxErrorBodySize = 64 * 1024
	// maxResponseSize bounds a successful catalog response.
	maxResponseSize = 8 * 1024 * 1024
)

// BodyClassifier inspects a response before status mapping. Sources that
// signal failures inside a JSON body (sometimes with HTTP 200) return a
// failure kind; nil means "no in-body error".
type BodyClassifier func(status int, body []byte) (kind error, detail string)

// HTTPClient is the transport every adapter embeds. It applies the base URL,
// User-Agent and Accept headers, maps statuses to failure kinds, bounds body
// reads, and hashes undecodable payloads.
type HTTPClient struct {
	Source    models.SourceID
	BaseURL   string
	UserAgent string
	Client    *http.Client
	// Classify, when set, runs before status mapping.
	Classify BodyClassifier
}

// NewHTTPClient creates a client with an explicit per-request timeout.
func NewHTTPClient(source models.SourceID, baseURL, userAgent string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		Source:    source,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
	}
}

// URL joins path onto the base URL and encodes query.
func (c *HTTPClient) URL(path string, query url.Values) string {
	u := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *HTTPClient) GetJSON(ctx context.Context, op Operation, path string, query url.Values, header http.Header, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path, query), http.NoBody)
	if err != nil {
		return c.Fail(op, ErrInvalidArgument, 0, fmt.Errorf("create request: %w", err))
	}
	copyHeader(req.Header, header)
	return c.Do(req, op, out)
}

// PostJSON issues a POST with body of the given content type and decodes the JSON response into out.
func (c *HTTPClient) PostJSON(ctx context.Context, op Operation, path string, contentType string, body []byte, header http.Header, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path, nil), bytes.NewReader(body))
	if err != nil {
		return c.Fail(op, ErrInvalidArgument, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	copyHeader(req.Header, header)
	return c.Do(req, op, out)
}

// Do executes req and decodes a successful JSON response into out.
func (c *HTTPClient) Do(req *http.Request, op Operation, out interface{}) error {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return c.Fail(op, ErrUpstreamUnavailable, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	limit := int64(maxResponseSize)
	if resp.StatusCode >= 400 {
		limit = maxErrorBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return c.Fail(op, ErrUpstreamUnavailable, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	if c.Classify != nil {
		if kind, detail := c.Classify(resp.StatusCode, body); kind != nil {
			return c.Fail(op, kind, resp.StatusCode, fmt.Errorf("upstream error: %s", detail))
		}
	}

	if kind := KindForStatus(resp.StatusCode); kind != nil {
		return c.Fail(op, kind, resp.StatusCode, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, truncate(body, 256)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return c.Malformed(op, resp.StatusCode, body, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// Fail builds a typed failure for this source.
func (c *HTTPClient) Fail(op Operation, kind error, status int, err error) *Error {
	return &Error{Source: c.Source, Op: op, Kind: kind, Status: status, Err: err}
}

// Malformed builds an ErrUpstreamMalformedResponse carrying the payload hash.
func (c *HTTPClient) Malformed(op Operation, status int, payload []byte, err error) *Error {
	e := c.Fail(op, ErrUpstreamMalformedResponse, status, err)
	e.PayloadHash = PayloadHash(payload)
	return e
}

// PayloadHash returns the hex encoding of the first 16 bytes of the SHA-256 of payload.
func PayloadHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:16])
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "... (truncated)"
}
