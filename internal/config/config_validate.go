// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateSources(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateDispatch(); err != nil {
		return err
	}

	if err := c.validateAggregate(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	return c.validateLogging()
}

// credentialKind describes which credential fields a source needs.
type credentialKind int

const (
	credentialNone credentialKind = iota
	credentialAPIKey
	credentialClientCredentials
)

var sourceCredentials = map[string]credentialKind{
	SourceTMDB:        credentialAPIKey,
	SourceIGDB:        credentialClientCredentials,
	SourceGoogleBooks: credentialAPIKey,
	SourceLastFM:      credentialAPIKey,
	SourceComicVine:   credentialAPIKey,
	SourceAniList:     credentialNone,
}

// validateSources validates every enabled source. Disabled sources are not checked.
func (c *Config) validateSources() error {
	for _, ns := range c.Sources.All() {
		if !ns.Config.Enabled {
			continue
		}
		if err := validateSource(ns.Name, &ns.Config); err != nil {
			return err
		}
	}
	return nil
}

func validateSource(name string, sc *SourceConfig) error {
	field := "sources." + name
	if err := validateBaseURL(sc.BaseURL, field+".base_url"); err != nil {
		return err
	}

	switch sourceCredentials[name] {
	case credentialAPIKey:
		if strings.TrimSpace(sc.APIKey) == "" {
			return fmt.Errorf("%s.api_key is required when %s is enabled", field, name)
		}
	case credentialClientCredentials:
		if sc.ClientID == "" || sc.ClientSecret == "" {
			return fmt.Errorf("%s.client_id and %s.client_secret are required when %s is enabled", field, field, name)
		}
		if err := validateBaseURL(sc.TokenURL, field+".token_url"); err != nil {
			return err
		}
	}

	if sc.RateLimit.Requests <= 0 {
		return fmt.Errorf("%s.rate_limit.requests must be positive, got %d", field, sc.RateLimit.Requests)
	}
	if sc.RateLimit.Per <= 0 {
		return fmt.Errorf("%s.rate_limit.per must be positive, got %s", field, sc.RateLimit.Per)
	}
	if sc.MaxResults <= 0 {
		return fmt.Errorf("%s.max_results must be positive, got %d", field, sc.MaxResults)
	}
	return nil
}

// validateBaseURL validates an upstream endpoint. Paths are allowed (most
// catalog APIs are versioned under one); query parameters are not.
func validateBaseURL(rawURL, fieldName string) error {
	if rawURL == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.CatalogTTL <= 0 {
		return fmt.Errorf("cache.catalog_ttl must be positive, got %s", c.Cache.CatalogTTL)
	}
	if c.Cache.ListTTL <= 0 {
		return fmt.Errorf("cache.list_ttl must be positive, got %s", c.Cache.ListTTL)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.CleanupInterval < 0 {
		return fmt.Errorf("cache.cleanup_interval must not be negative, got %s", c.Cache.CleanupInterval)
	}
	return nil
}

func (c *Config) validateDispatch() error {
	d := c.Dispatch
	if d.CallTimeout <= 0 {
		return fmt.Errorf("dispatch.call_timeout must be positive, got %s", d.CallTimeout)
	}
	if d.MaxParallel <= 0 {
		return fmt.Errorf("dispatch.max_parallel must be positive, got %d", d.MaxParallel)
	}

	switch d.RateLimitMode {
	case RateLimitModeSkip:
	case RateLimitModeWait:
		if d.WaitTimeout <= 0 {
			return fmt.Errorf("dispatch.wait_timeout must be positive in wait mode, got %s", d.WaitTimeout)
		}
	default:
		return fmt.Errorf("dispatch.rate_limit_mode must be %q or %q, got %q", RateLimitModeSkip, RateLimitModeWait, d.RateLimitMode)
	}

	if d.RetryDelay < 0 {
		return fmt.Errorf("dispatch.retry_delay must not be negative, got %s", d.RetryDelay)
	}
	if d.BreakerFailures == 0 {
		return fmt.Errorf("dispatch.breaker_failures must be positive")
	}
	if d.BreakerTimeout <= 0 {
		return fmt.Errorf("dispatch.breaker_timeout must be positive, got %s", d.BreakerTimeout)
	}
	return nil
}

func (c *Config) validateAggregate() error {
	a := c.Aggregate
	if a.DefaultLimit <= 0 {
		return fmt.Errorf("aggregate.default_limit must be positive, got %d", a.DefaultLimit)
	}
	if a.MaxLimit < a.DefaultLimit {
		return fmt.Errorf("aggregate.max_limit (%d) must be at least aggregate.default_limit (%d)", a.MaxLimit, a.DefaultLimit)
	}
	if a.RatingWeight < 0 || a.EngagementWeight < 0 {
		return fmt.Errorf("aggregate weights must not be negative")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.RateLimitDisabled {
		return nil
	}
	if c.API.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQS must be positive, got %d", c.API.RateLimitReqs)
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.API.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
