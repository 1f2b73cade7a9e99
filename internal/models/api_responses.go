// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package models

import (
	"time"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
// Status is "success" (see Data) or "error" (see Error).
//
//	{
//	  "status": "error",
//	  "error": {"code": "CANNOT_GENERATE", "message": "date and customer columns are required"},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing. Cached is set when the dataset was served
// from the shared cache without a reload.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a machine-readable error.
//
// Codes:
//   - VALIDATION_ERROR: malformed request
//   - NOT_FOUND, SESSION_NOT_FOUND: unknown resource
//   - DATASET_UNAVAILABLE: the dataset could not be loaded
//   - NO_DATASET: the session has no active dataset
//   - CANNOT_GENERATE: date or customer column unavailable
//   - ANALYSIS_FAILED: the cohort engine rejected the request
//   - RATE_LIMIT_EXCEEDED
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps data in a success envelope.
func SuccessResponse(data interface{}, started time.Time) *APIResponse {
	return &APIResponse{
		Status: "success",
		Data:   data,
		Metadata: Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
	}
}
