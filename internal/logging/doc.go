// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package logging provides centralized zerolog-based structured logging for Marquee.
//
// # Overview
//
// The package provides:
//   - A process-wide zerolog logger configured once from config.LoggingConfig
//   - JSON output for production and console output for development
//   - Context-aware logging with correlation and request ID propagation
//   - Component and source scoped child loggers
//   - An slog adapter so suture's event hook writes through zerolog
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
//	logging.Ctx(ctx).Warn().Err(err).Str("source", "tmdb").Msg("Source skipped")
//
// # Source Loggers
//
// Adapters and the dispatcher log through scoped loggers so every line carries
// the catalog it concerns:
//
//	log := logging.ForSource("igdb")
//	log.Debug().Str("operation", "search").Msg("Calling upstream")
//
// Always terminate event chains with Msg() or Send(); an unterminated event is
// never written.
package logging
