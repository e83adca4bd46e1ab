// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package sources

import "time"

// Options is the construction-time configuration shared by every adapter.
// Each adapter reads only the fields its API needs.
type Options struct {
	BaseURL   string
	UserAgent string
	// Timeout bounds each HTTP request, including token exchanges.
	Timeout    time.Duration
	MaxResults int

	APIKey string

	ClientID     string
	ClientSecret string
	TokenURL     string

	// Topic scopes list queries for APIs without a native trending feed.
	Topic string
}

// MaxOr returns o.MaxResults when positive, otherwise def.
func (o Options) MaxOr(def int) int {
	if o.MaxResults > 0 {
		return o.MaxResults
	}
	return def
}

// Truncate returns at most n leading elements of s.
func Truncate[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}
