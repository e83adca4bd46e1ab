// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/marquee/config.yaml",
	"/etc/marquee/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			UserAgent: "Marquee/1.0 (+https://github.com/tomtom215/marquee)",
			TMDB: SourceConfig{
				BaseURL:    "https://api.themoviedb.org/3",
				RateLimit:  RateLimitConfig{Requests: 40, Per: time.Second},
				MaxResults: 20,
			},
			IGDB: SourceConfig{
				BaseURL:    "https://api.igdb.com/v4",
				TokenURL:   "https://id.twitch.tv/oauth2/token",
				RateLimit:  RateLimitConfig{Requests: 4, Per: time.Second},
				MaxResults: 500,
			},
			GoogleBooks: SourceConfig{
				BaseURL:    "https://www.googleapis.com/books/v1",
				RateLimit:  RateLimitConfig{Requests: 100, Per: time.Minute},
				MaxResults: 40,
				Topic:      "fiction",
			},
			LastFM: SourceConfig{
				BaseURL:    "https://ws.audioscrobbler.com/2.0",
				RateLimit:  RateLimitConfig{Requests: 5, Per: time.Second},
				MaxResults: 50,
				Topic:      "rock",
			},
			ComicVine: SourceConfig{
				BaseURL:    "https://comicvine.gamespot.com/api",
				RateLimit:  RateLimitConfig{Requests: 200, Per: time.Hour},
				MaxResults: 100,
			},
			// AniList needs no credential, so it is the only source on by default.
			AniList: SourceConfig{
				Enabled:    true,
				BaseURL:    "https://graphql.anilist.co",
				RateLimit:  RateLimitConfig{Requests: 90, Per: time.Minute},
				MaxResults: 50,
			},
		},
		Cache: CacheConfig{
			CatalogTTL:      time.Hour,
			ListTTL:         5 * time.Minute,
			MaxEntries:      2048,
			CleanupInterval: time.Minute,
		},
		Dispatch: DispatchConfig{
			CallTimeout:     8 * time.Second,
			MaxParallel:     8,
			RateLimitMode:   RateLimitModeSkip,
			WaitTimeout:     2 * time.Second,
			RetryDelay:      250 * time.Millisecond,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Aggregate: AggregateConfig{
			DefaultLimit:     20,
			MaxLimit:         100,
			RatingWeight:     1.0,
			EngagementWeight: 2.0,
		},
		Server: ServerConfig{
			Port:    8087,
			Host:    "0.0.0.0",
			Timeout: 30 * time.Second,
		},
		API: APIConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
//
// Precedence is ENV > File > Defaults. The result is validated before it is returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// TMDB_API_KEY -> sources.tmdb.api_key
	// DISPATCH_CALL_TIMEOUT -> dispatch.call_timeout
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// sourceEnvPrefixes maps environment variable prefixes to source config keys.
var sourceEnvPrefixes = map[string]string{
	"tmdb":         SourceTMDB,
	"igdb":         SourceIGDB,
	"google_books": SourceGoogleBooks,
	"lastfm":       SourceLastFM,
	"comicvine":    SourceComicVine,
	"anilist":      SourceAniList,
}

// sourceEnvSuffixes maps per-source environment variable suffixes to field paths.
var sourceEnvSuffixes = map[string]string{
	"enabled":             "enabled",
	"base_url":            "base_url",
	"api_key":             "api_key",
	"client_id":           "client_id",
	"client_secret":       "client_secret",
	"token_url":           "token_url",
	"rate_limit_requests": "rate_limit.requests",
	"rate_limit_per":      "rate_limit.per",
	"max_results":         "max_results",
	"topic":               "topic",
}

// envMappings is the full environment variable table. Keys are lowercased
// variable names.
var envMappings = buildEnvMappings()

func buildEnvMappings() map[string]string {
	m := map[string]string{
		"marquee_user_agent": "sources.user_agent",

		// Cache
		"cache_catalog_ttl":      "cache.catalog_ttl",
		"cache_list_ttl":         "cache.list_ttl",
		"cache_max_entries":      "cache.max_entries",
		"cache_cleanup_interval": "cache.cleanup_interval",

		// Dispatch
		"dispatch_call_timeout":     "dispatch.call_timeout",
		"dispatch_max_parallel":     "dispatch.max_parallel",
		"dispatch_rate_limit_mode":  "dispatch.rate_limit_mode",
		"dispatch_wait_timeout":     "dispatch.wait_timeout",
		"dispatch_retry_delay":      "dispatch.retry_delay",
		"dispatch_breaker_failures": "dispatch.breaker_failures",
		"dispatch_breaker_timeout":  "dispatch.breaker_timeout",

		// Aggregate
		"aggregate_default_limit":     "aggregate.default_limit",
		"aggregate_max_limit":         "aggregate.max_limit",
		"aggregate_rating_weight":     "aggregate.rating_weight",
		"aggregate_engagement_weight": "aggregate.engagement_weight",

		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",

		// API
		"rate_limit_reqs":    "api.rate_limit_reqs",
		"rate_limit_window":  "api.rate_limit_window",
		"disable_rate_limit": "api.rate_limit_disabled",
		"cors_origins":       "api.cors_origins",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	for prefix, source := range sourceEnvPrefixes {
		for suffix, field := range sourceEnvSuffixes {
			m[prefix+"_"+suffix] = "sources." + source + "." + field
		}
	}
	return m
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped keys return empty string so unrelated environment variables never
// pollute the configuration.
//
// Examples:
//   - TMDB_API_KEY -> sources.tmdb.api_key
//   - IGDB_CLIENT_SECRET -> sources.igdb.client_secret
//   - GOOGLE_BOOKS_TOPIC -> sources.googlebooks.topic
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// GetKoanfInstance returns a new Koanf instance for advanced usage such as
// custom configuration sources in tests.
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}
