// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any mapped setting
//
// Configuration Categories:
//
//  1. Catalog Sources: per-source base URL, credentials, rate ceiling and page size
//  2. Engine: cache TTLs and size bound, dispatch timeouts and limiter mode, ranking weights
//  3. Surface: HTTP server, API throttling and CORS
//  4. Observability: logging level and format
//
// Config is read once at process start and is immutable afterwards; it is safe
// for concurrent read access.
type Config struct {
	Sources   SourcesConfig   `koanf:"sources"`
	Cache     CacheConfig     `koanf:"cache"`
	Dispatch  DispatchConfig  `koanf:"dispatch"`
	Aggregate AggregateConfig `koanf:"aggregate"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// Source names used as configuration keys. They match models.SourceID values.
const (
	SourceTMDB        = "tmdb"
	SourceIGDB        = "igdb"
	SourceGoogleBooks = "googlebooks"
	SourceLastFM      = "lastfm"
	SourceComicVine   = "comicvine"
	SourceAniList     = "anilist"
)

// SourcesConfig holds the configuration of every catalog source.
type SourcesConfig struct {
	// UserAgent is sent on every upstream request. Comic Vine rejects requests without one.
	UserAgent string `koanf:"user_agent"`

	TMDB        SourceConfig `koanf:"tmdb"`
	IGDB        SourceConfig `koanf:"igdb"`
	GoogleBooks SourceConfig `koanf:"googlebooks"`
	LastFM      SourceConfig `koanf:"lastfm"`
	ComicVine   SourceConfig `koanf:"comicvine"`
	AniList     SourceConfig `koanf:"anilist"`
}

// NamedSource pairs a source name with its configuration.
type NamedSource struct {
	Name   string
	Config SourceConfig
}

// All returns every source configuration in registration order. The order
// determines source-call order when two sources serve the same media type.
func (s *SourcesConfig) All() []NamedSource {
	return []NamedSource{
		{Name: SourceTMDB, Config: s.TMDB},
		{Name: SourceIGDB, Config: s.IGDB},
		{Name: SourceGoogleBooks, Config: s.GoogleBooks},
		{Name: SourceLastFM, Config: s.LastFM},
		{Name: SourceComicVine, Config: s.ComicVine},
		{Name: SourceAniList, Config: s.AniList},
	}
}

// Enabled returns only the enabled sources, in registration order.
func (s *SourcesConfig) Enabled() []NamedSource {
	all := s.All()
	out := make([]NamedSource, 0, len(all))
	for _, ns := range all {
		if ns.Config.Enabled {
			out = append(out, ns)
		}
	}
	return out
}

// SourceConfig holds the settings of one external catalog.
//
// Credential material is either an API key (TMDB, Google Books, Last.fm,
// Comic Vine) or an OAuth2 client-credentials pair plus token endpoint (IGDB).
// AniList needs neither.
type SourceConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"base_url"`

	APIKey string `koanf:"api_key"`

	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	TokenURL     string `koanf:"token_url"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`

	// MaxResults is the largest page the source returns per call.
	MaxResults int `koanf:"max_results"`

	// Topic scopes list queries for sources without a native trending feed:
	// the Google Books subject or the Last.fm tag.
	Topic string `koanf:"topic"`
}

// RateLimitConfig expresses a source ceiling as Requests per Per.
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Per      time.Duration `koanf:"per"`
}

// String renders the limit as "N/T", e.g. "4/1s".
func (r RateLimitConfig) String() string {
	return fmt.Sprintf("%d/%s", r.Requests, r.Per)
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	// CatalogTTL applies to search results.
	CatalogTTL time.Duration `koanf:"catalog_ttl"`
	// ListTTL applies to trending and popular results.
	ListTTL time.Duration `koanf:"list_ttl"`
	// MaxEntries bounds the cache; the oldest inserted entry is evicted first.
	MaxEntries int `koanf:"max_entries"`
	// CleanupInterval is how often the janitor sweeps expired entries. Zero disables it.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// Rate limiter modes for the dispatcher.
const (
	RateLimitModeSkip = "skip"
	RateLimitModeWait = "wait"
)

// DispatchConfig holds fan-out settings.
type DispatchConfig struct {
	// CallTimeout bounds every adapter call, including the credential exchange.
	CallTimeout time.Duration `koanf:"call_timeout"`
	// MaxParallel bounds concurrent source tasks per dispatch.
	MaxParallel int `koanf:"max_parallel"`
	// RateLimitMode is "skip" (drop an exhausted source) or "wait" (block up to WaitTimeout).
	RateLimitMode string        `koanf:"rate_limit_mode"`
	WaitTimeout   time.Duration `koanf:"wait_timeout"`
	// RetryDelay is the backoff before the single retry of a transient failure.
	RetryDelay time.Duration `koanf:"retry_delay"`
	// BreakerFailures is the number of consecutive failures that opens a source's circuit.
	BreakerFailures uint32 `koanf:"breaker_failures"`
	// BreakerTimeout is how long an open circuit stays open before a probe.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// AggregateConfig holds result sizing and ranking weights.
type AggregateConfig struct {
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`
	// Popular score = RatingWeight*rating + EngagementWeight*engagement.
	RatingWeight     float64 `koanf:"rating_weight"`
	EngagementWeight float64 `koanf:"engagement_weight"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// APIConfig holds settings of the JSON surface.
type APIConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
