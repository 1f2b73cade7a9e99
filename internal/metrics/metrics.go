// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dataset cache
	DatasetCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohortscope_dataset_cache_hits_total",
			Help: "Dataset requests served from a valid cache entry",
		},
		[]string{"dataset"},
	)

	DatasetCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohortscope_dataset_cache_misses_total",
			Help: "Dataset requests that found no valid cache entry",
		},
		[]string{"dataset", "reason"}, // "absent", "expired"
	)

	DatasetCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cohortscope_dataset_cache_evictions_total",
			Help: "Expired dataset entries removed by the janitor",
		},
	)

	DatasetCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cohortscope_dataset_cache_entries",
			Help: "Dataset entries currently held in the cache",
		},
	)

	DatasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cohortscope_dataset_load_duration_seconds",
			Help:    "Time to read, clean and materialize a dataset",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"dataset"},
	)

	DatasetLoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohortscope_dataset_load_errors_total",
			Help: "Failed dataset loads",
		},
		[]string{"dataset"},
	)

	DatasetBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cohortscope_dataset_breaker_state",
			Help: "Load circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"dataset"},
	)

	// Cohort generation
	CohortGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cohortscope_cohort_generation_duration_seconds",
			Help:    "End-to-end duration of a cohort generation request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"period", "mode"}, // mode: "retention" or "value"
	)

	CohortGenerationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohortscope_cohort_generation_errors_total",
			Help: "Cohort generation failures by stage",
		},
		[]string{"stage"},
	)

	CohortEngineCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohortscope_cohort_engine_calls_total",
			Help: "Calls into the cohort engine",
		},
		[]string{"metric"}, // "absolute", "retention"
	)

	// Sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cohortscope_active_sessions",
			Help: "Analysis sessions currently registered",
		},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cohortscope_sessions_expired_total",
			Help: "Sessions removed after idling past the timeout",
		},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohortscope_api_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cohortscope_api_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cohortscope_api_active_requests",
			Help: "In-flight HTTP API requests",
		},
	)
)

// RecordCacheHit records a dataset served from cache.
func RecordCacheHit(dataset string) {
	DatasetCacheHits.WithLabelValues(dataset).Inc()
}

// RecordCacheMiss records a dataset lookup that required a load.
func RecordCacheMiss(dataset string, expired bool) {
	reason := "absent"
	if expired {
		reason = "expired"
	}
	DatasetCacheMisses.WithLabelValues(dataset, reason).Inc()
}

// RecordDatasetLoad records a load attempt and its outcome.
func RecordDatasetLoad(dataset string, duration time.Duration, err error) {
	DatasetLoadDuration.WithLabelValues(dataset).Observe(duration.Seconds())
	if err != nil {
		DatasetLoadErrors.WithLabelValues(dataset).Inc()
	}
}

// RecordCohortGeneration records a generate request. stage is empty on success.
func RecordCohortGeneration(period string, valueAnalysis bool, duration time.Duration, stage string) {
	mode := "retention"
	if valueAnalysis {
		mode = "value"
	}
	CohortGenerationDuration.WithLabelValues(period, mode).Observe(duration.Seconds())
	if stage != "" {
		CohortGenerationErrors.WithLabelValues(stage).Inc()
	}
}

// RecordEngineCall counts one call into the cohort engine.
func RecordEngineCall(retention bool) {
	metric := "absolute"
	if retention {
		metric = "retention"
	}
	CohortEngineCalls.WithLabelValues(metric).Inc()
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
