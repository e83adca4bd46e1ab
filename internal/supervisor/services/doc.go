// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package services adapts long-running components to suture.Service.
//
// Every service returns ctx.Err() once its context is cancelled, which
// suture treats as a clean stop rather than a failure to restart.
package services
