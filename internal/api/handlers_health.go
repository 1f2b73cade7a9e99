// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/cohortscope/internal/middleware"
)

// healthPingTimeout bounds the database check in health probes.
const healthPingTimeout = 2 * time.Second

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status            string             `json:"status"`
	DatabaseConnected bool               `json:"database_connected"`
	ActiveSessions    int                `json:"active_sessions"`
	Datasets          []datasetCacheLine `json:"datasets"`
	Uptime            float64            `json:"uptime_seconds"`
}

type datasetCacheLine struct {
	Name   string `json:"name"`
	Cached bool   `json:"cached"`
}

func (h *Handler) databaseUp(ctx context.Context) bool {
	if h.explorer == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return h.explorer.Ping(ctx) == nil
}

// Health reports database connectivity, session count and dataset cache state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	dbUp := h.databaseUp(r.Context())

	status := "healthy"
	if !dbUp {
		status = "degraded"
	}

	lines := make([]datasetCacheLine, 0)
	for _, src := range h.catalog.Sources() {
		lines = append(lines, datasetCacheLine{Name: src.Name, Cached: h.datasets.Info(src.Name).Cached})
	}

	respondOK(w, http.StatusOK, HealthStatus{
		Status:            status,
		DatabaseConnected: dbUp,
		ActiveSessions:    h.sessions.Len(),
		Datasets:          lines,
		Uptime:            time.Since(h.startTime).Seconds(),
	}, started)
}

// HealthLive returns 200 while the process is alive.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondOK(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady returns 200 only when the database answers, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.databaseUp(r.Context()) {
		respondError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Database not reachable", nil)
		return
	}
	respondOK(w, http.StatusOK, map[string]interface{}{"ready": true}, time.Now())
}

// PerformanceStats returns per-route latency statistics.
func (h *Handler) PerformanceStats(w http.ResponseWriter, r *http.Request) {
	stats := []middleware.EndpointStats{}
	if h.perfMon != nil {
		stats = h.perfMon.GetStats()
	}
	respondOK(w, http.StatusOK, stats, time.Now())
}
