// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cohort

import (
	"errors"
	"fmt"
)

var (
	// ErrCannotGenerate means the date or customer column is unavailable.
	ErrCannotGenerate = errors.New("analysis cannot be generated: date and customer columns are required")

	// ErrConfigurationInconsistency marks a request that violates the resolver rules.
	ErrConfigurationInconsistency = errors.New("inconsistent analysis configuration")
)

// Computation stages reported by ComputationError.
const (
	StageAbsolute  = "absolute"
	StageRetention = "retention"
)

// ComputationError wraps an engine failure with the stage that failed.
type ComputationError struct {
	Stage string
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("cohort computation failed (%s): %v", e.Stage, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}
