// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package supervisor provides process supervision for Marquee using suture v4.

The tree has two layers so a failing background task never takes the API down:

	RootSupervisor ("marquee")
	├── EngineSupervisor ("engine-layer")
	│   └── CacheJanitorService (sweeps expired cache entries)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (service failures, backoff, restarts) are logged through
sutureslog into the zerolog-backed slog handler from the logging package:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	tree.AddEngineService(services.NewCacheJanitorService(time.Minute, sourceCache, resultCache))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx) // blocks until ctx is cancelled

Failure handling follows suture's defaults: after FailureThreshold failures
(decaying at FailureDecay per second) a supervisor waits FailureBackoff
before restarting its children again.
*/
package supervisor
