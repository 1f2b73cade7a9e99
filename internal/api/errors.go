// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cohortscope/internal/cohort"
	"github.com/tomtom215/cohortscope/internal/dataset"
	"github.com/tomtom215/cohortscope/internal/session"
)

// Error codes returned in models.APIError.Code.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeTooManySessions    = "TOO_MANY_SESSIONS"
	CodeDatasetUnavailable = "DATASET_UNAVAILABLE"
	CodeNoDataset          = "NO_DATASET"
	CodeCannotGenerate     = "CANNOT_GENERATE"
	CodeAnalysisFailed     = "ANALYSIS_FAILED"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	CodeTimeout            = "TIMEOUT"
	CodeInternal           = "INTERNAL_ERROR"
)

// apiError is a mapped domain error.
type apiError struct {
	status  int
	code    string
	message string
}

// classifyError maps a domain error to an HTTP status and code.
func classifyError(err error) apiError {
	var loadErr *dataset.LoadError
	var compErr *cohort.ComputationError

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return apiError{http.StatusNotFound, CodeSessionNotFound, "Session not found or expired"}
	case errors.Is(err, session.ErrTooManySessions):
		return apiError{http.StatusServiceUnavailable, CodeTooManySessions, "Too many active sessions, try again later"}
	case errors.Is(err, session.ErrNoDataset):
		return apiError{http.StatusConflict, CodeNoDataset, "Load a dataset before generating an analysis"}
	case errors.Is(err, session.ErrUnknownColumn):
		return apiError{http.StatusBadRequest, CodeValidation, err.Error()}
	case errors.Is(err, cohort.ErrCannotGenerate):
		return apiError{http.StatusUnprocessableEntity, CodeCannotGenerate, "Date and customer columns are required to generate an analysis"}
	case errors.Is(err, dataset.ErrUnknownDataset):
		return apiError{http.StatusNotFound, CodeDatasetUnavailable, "Unknown dataset"}
	case errors.As(err, &loadErr):
		msg := "Dataset could not be loaded"
		if errors.Is(err, gobreaker.ErrOpenState) {
			msg = "Dataset source is failing, retry later"
		}
		return apiError{http.StatusServiceUnavailable, CodeDatasetUnavailable, msg}
	case errors.Is(err, cohort.ErrConfigurationInconsistency):
		return apiError{http.StatusInternalServerError, CodeInternal, "Analysis configuration is inconsistent"}
	case errors.As(err, &compErr):
		return apiError{http.StatusUnprocessableEntity, CodeAnalysisFailed, "Cohort computation failed at the " + compErr.Stage + " stage"}
	case errors.Is(err, context.DeadlineExceeded):
		return apiError{http.StatusGatewayTimeout, CodeTimeout, "Request timed out"}
	default:
		return apiError{http.StatusInternalServerError, CodeInternal, "Internal server error"}
	}
}

// respondDomainError writes the mapped error. The cause is logged for 5xx responses.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	mapped := classifyError(err)
	var cause error
	if mapped.status >= http.StatusInternalServerError || mapped.code == CodeAnalysisFailed {
		cause = err
	}
	respondError(w, r, mapped.status, mapped.code, mapped.message, cause)
}
