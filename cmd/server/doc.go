// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

/*
Package main is the entry point for the Cohortscope server.

Cohortscope serves cohort analyses over two bundled e-commerce datasets. Each
browser session picks a dataset and analysis options; cleaned datasets are
shared across sessions through a TTL cache backed by an embedded DuckDB engine.

# Application Architecture

Long-running work runs under a Suture v4 supervisor tree:

	RootSupervisor ("cohortscope")
	├── DataSupervisor ("data-layer")
	│   ├── dataset-warmup (one-shot, CACHE_WARM_ON_STARTUP)
	│   ├── dataset-cache-janitor (CACHE_CLEANUP_INTERVAL)
	│   └── session-reaper (SESSION_CLEANUP_INTERVAL)
	└── APISupervisor ("api-layer")
	    └── http-server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment variables
 2. Logging: zerolog with JSON or console output
 3. Database: in-process DuckDB
 4. Dataset loader and cache: catalog sources, circuit breakers, TTL store
 5. Session manager and cohort orchestrator
 6. HTTP server: Chi router with the middleware stack
 7. Supervisor tree

# Configuration

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	HTTP_PORT=8501
	DATA_DIR=data
	ECOMMERCE_1_FILE=ecommerce_data_1.csv
	ECOMMERCE_2_FILE=ecommerce_data_2.csv
	CACHE_TTL=24h
	SESSION_IDLE_TIMEOUT=2h
	LOG_LEVEL=info

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains in-flight
requests within SHUTDOWN_TIMEOUT and the engine is closed last.
*/
package main
