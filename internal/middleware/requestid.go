// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tomtom215/cohortscope/internal/logging"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// Header names read and written by RequestID.
const (
	RequestIDHeader = "X-Request-ID"
	SessionIDHeader = "X-Session-ID"
)

// maxRequestIDLength bounds upstream-supplied IDs.
const maxRequestIDLength = 128

// RequestID middleware generates a unique ID for each request
// and adds it to both the response header and request context.
// An X-Session-ID header, when present, is added to the logging context
// so every log line for the request names the analysis session.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if request already has an ID (from upstream proxy)
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = logging.ContextWithRequestID(ctx, requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)
		if sessionID := r.Header.Get(SessionIDHeader); sessionID != "" && len(sessionID) <= maxRequestIDLength {
			ctx = logging.ContextWithSessionID(ctx, sessionID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
