// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

/*
Package middleware provides HTTP middleware for the cohortscope API.

All middleware uses the standard func(http.Handler) http.Handler shape so it
can be installed with chi's r.Use().

Key Components:

  - RequestID: X-Request-ID propagation plus request, correlation and session
    IDs in the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled by
    the chi route pattern so session IDs never become label values
  - Compression: pooled gzip for clients that accept it
  - PerformanceMonitor: sliding-window latency percentiles per route

Middleware Stack:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(rateLimit)
	    r.Use(middleware.PrometheusMetrics)
	    r.Use(monitor.Middleware)
	    r.Use(middleware.Compression)
	    ...
	})

Thread Safety:

All middleware is safe for concurrent use. PerformanceMonitor guards its
window with a sync.RWMutex; gzip writers come from a sync.Pool.
*/
package middleware
