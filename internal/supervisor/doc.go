// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

/*
Package supervisor runs cohortscope's long-lived services under a suture v4
supervision tree.

Tree layout:

	cohortscope (root)
	├── data-layer
	│   ├── dataset-warmup          (runs once, suture.ErrDoNotRestart)
	│   ├── dataset-cache-janitor   (DatasetCache.Cleanup every cache.cleanup_interval)
	│   └── session-reaper          (Manager.Reap every session.cleanup_interval)
	└── api-layer
	    └── http-server

Supervisor events (restarts, backoff, panics) are logged through sutureslog
with the zerolog-backed slog.Logger from logging.NewSlogLogger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewWarmupService(datasetCache, 0))
	tree.AddAPIService(services.NewHTTPServerService(server, addr, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
