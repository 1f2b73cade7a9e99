// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDataset is returned for names outside the catalog.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrSourceUnreadable is returned when the source file cannot be opened or parsed.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrInvariantViolated is returned when the cleaned data breaks a cleaning invariant.
	ErrInvariantViolated = errors.New("cleaning invariant violated")
)

// LoadError reports a failed dataset load. The previously cached generation,
// if any, stays in use.
type LoadError struct {
	Dataset string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load dataset %q: %v", e.Dataset, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
