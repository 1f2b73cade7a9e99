// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cohortscope/internal/middleware"
)

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. mw may be nil for defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, CodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		if router.handler.perfMon != nil {
			r.Use(router.handler.perfMon.Middleware)
		}
		r.Use(middleware.Compression)

		r.Get("/performance", router.handler.PerformanceStats)

		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", router.handler.ListDatasets)
			r.Get("/{slug}/columns", router.handler.DatasetColumns)
			r.Get("/{slug}/overview", router.handler.DatasetOverview)
			r.Get("/{slug}/preview", router.handler.DatasetPreview)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", router.handler.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", router.handler.GetSession)
				r.Delete("/", router.handler.DeleteSession)
				r.Post("/dataset", router.handler.LoadSessionDataset)
				r.Post("/generate", router.handler.GenerateCohort)
				r.Post("/reset", router.handler.ResetSession)
				r.Get("/result", router.handler.SessionResult)
			})
		})
	})

	return r
}
