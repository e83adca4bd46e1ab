// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/marquee/internal/api"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/supervisor"
	"github.com/tomtom215/marquee/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Default logger; config not yet available
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	enabled := cfg.Sources.Enabled()
	names := make([]string, 0, len(enabled))
	for _, ns := range enabled {
		names = append(names, ns.Name)
	}
	logging.Info().
		Str("version", version).
		Strs("sources", names).
		Str("rate_limit_mode", cfg.Dispatch.RateLimitMode).
		Dur("call_timeout", cfg.Dispatch.CallTimeout).
		Msg("Starting Marquee")
	if len(enabled) == 0 {
		logging.Warn().Msg("No catalog sources enabled; every query will fail until one is configured")
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build catalog engine")
	}

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.API.CORSOrigins
	mwConfig.RateLimitRequests = cfg.API.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.API.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.API.RateLimitDisabled

	router := api.NewRouter(api.NewHandler(eng.aggregator, version), api.NewChiMiddleware(mwConfig))
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Cache.CleanupInterval > 0 {
		tree.AddEngineService(services.NewCacheJanitorService(cfg.Cache.CleanupInterval, eng.caches...))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Marquee stopped")
}
