// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package database

import (
	"errors"
	"io"

	"github.com/tomtom215/cohortscope/internal/logging"
)

var (
	// ErrInvalidIdentifier is returned for table names outside the managed naming scheme.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrUnknownColumn is returned when a query references a column the dataset does not have.
	ErrUnknownColumn = errors.New("unknown column")
)

// closeWithLog closes a resource and logs any error
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
