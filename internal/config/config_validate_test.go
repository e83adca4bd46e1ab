// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name: "api key source without key",
			mutate: func(c *Config) {
				c.Sources.TMDB.Enabled = true
			},
			wantErr: "sources.tmdb.api_key is required",
		},
		{
			name: "api key source with key",
			mutate: func(c *Config) {
				c.Sources.ComicVine.Enabled = true
				c.Sources.ComicVine.APIKey = "cv"
			},
		},
		{
			name: "client credentials missing secret",
			mutate: func(c *Config) {
				c.Sources.IGDB.Enabled = true
				c.Sources.IGDB.ClientID = "id"
			},
			wantErr: "client_secret are required",
		},
		{
			name: "base url with query",
			mutate: func(c *Config) {
				c.Sources.AniList.BaseURL = "https://graphql.anilist.co?x=1"
			},
			wantErr: "should not contain query parameters",
		},
		{
			name: "base url bad scheme",
			mutate: func(c *Config) {
				c.Sources.AniList.BaseURL = "ftp://graphql.anilist.co"
			},
			wantErr: "scheme must be http or https",
		},
		{
			name: "zero rate limit",
			mutate: func(c *Config) {
				c.Sources.AniList.RateLimit.Requests = 0
			},
			wantErr: "rate_limit.requests must be positive",
		},
		{
			name: "disabled source is not checked",
			mutate: func(c *Config) {
				c.Sources.LastFM.RateLimit.Requests = 0
			},
		},
		{
			name: "unknown limiter mode",
			mutate: func(c *Config) {
				c.Dispatch.RateLimitMode = "queue"
			},
			wantErr: "dispatch.rate_limit_mode",
		},
		{
			name: "wait mode without timeout",
			mutate: func(c *Config) {
				c.Dispatch.RateLimitMode = RateLimitModeWait
				c.Dispatch.WaitTimeout = 0
			},
			wantErr: "dispatch.wait_timeout",
		},
		{
			name: "max limit below default",
			mutate: func(c *Config) {
				c.Aggregate.MaxLimit = 10
			},
			wantErr: "aggregate.max_limit",
		},
		{
			name: "negative weight",
			mutate: func(c *Config) {
				c.Aggregate.EngagementWeight = -1
			},
			wantErr: "weights must not be negative",
		},
		{
			name: "zero cache ttl",
			mutate: func(c *Config) {
				c.Cache.ListTTL = 0
			},
			wantErr: "cache.list_ttl",
		},
		{
			name: "bad port",
			mutate: func(c *Config) {
				c.Server.Port = 70000
			},
			wantErr: "HTTP_PORT",
		},
		{
			name: "rate limit disabled skips api checks",
			mutate: func(c *Config) {
				c.API.RateLimitDisabled = true
				c.API.RateLimitWindow = 0
			},
		},
		{
			name: "bad log level",
			mutate: func(c *Config) {
				c.Logging.Level = "verbose"
			},
			wantErr: "LOG_LEVEL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSourcesEnabledOrder(t *testing.T) {
	cfg := defaultConfig()
	cfg.Sources.TMDB.Enabled = true
	cfg.Sources.ComicVine.Enabled = true

	enabled := cfg.Sources.Enabled()
	got := make([]string, 0, len(enabled))
	for _, ns := range enabled {
		got = append(got, ns.Name)
	}
	want := []string{SourceTMDB, SourceComicVine, SourceAniList}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Enabled() = %v, want %v", got, want)
	}
}

func TestRateLimitConfigString(t *testing.T) {
	r := RateLimitConfig{Requests: 4, Per: time.Second}
	if r.String() != "4/1s" {
		t.Errorf("String() = %q, want 4/1s", r.String())
	}
}
