// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package igdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/sources"
)

// tokenCache holds the bearer token obtained through the client-credentials
// exchange. The token is fetched on first use, reused until it expires and
// never written anywhere but memory. The exchange runs under the caller's
// context, so a request deadline also bounds credential refresh.
type tokenCache struct {
	mu     sync.Mutex
	conf   *clientcredentials.Config
	client *http.Client
	tok    *oauth2.Token
}

func newTokenCache(clientID, clientSecret, tokenURL string, client *http.Client) *tokenCache {
	return &tokenCache{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		client: client,
	}
}

// Token returns a valid bearer token, exchanging credentials when the cached
// one is missing or expired. Concurrent callers share one exchange.
func (c *tokenCache) Token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok.Valid() {
		return c.tok, nil
	}

	// The identity endpoint is reached with the same bounded client as the catalog.
	tok, err := c.conf.Token(context.WithValue(ctx, oauth2.HTTPClient, c.client))
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.TokenRefreshes.WithLabelValues(string(models.SourceIGDB), result).Inc()
	if err != nil {
		return nil, err
	}
	c.tok = tok
	return tok, nil
}

// Invalidate drops the cached token so the next call exchanges again.
func (c *tokenCache) Invalidate() {
	c.mu.Lock()
	c.tok = nil
	c.mu.Unlock()
}

// tokenError classifies a failed exchange. Credential rejections are auth
// failures; anything else means the identity endpoint is unavailable.
func tokenError(op sources.Operation, err error) *sources.Error {
	kind := sources.ErrUpstreamUnavailable
	status := 0
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		status = re.Response.StatusCode
		switch status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			kind = sources.ErrUpstreamAuthFailed
		case http.StatusTooManyRequests:
			kind = sources.ErrUpstreamRateLimited
		}
	}
	e := sources.NewError(models.SourceIGDB, op, kind, fmt.Errorf("token exchange: %w", err))
	e.Status = status
	return e
}
