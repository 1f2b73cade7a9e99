// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cohort

import (
	"context"
	"errors"

	"github.com/tomtom215/cohortscope/internal/models"
)

// EngineParams are the arguments of one engine call. Output is always a pivot.
type EngineParams struct {
	DateColumn             string
	CustomerColumn         string
	Period                 Period
	PeriodDuration         int
	CalculateRetentionRate bool
	ValueColumn            models.Optional[string]
	Aggregation            models.Optional[Aggregation]
}

// Check enforces the engine call contract: retention excludes a value column
// and aggregation, and a value column requires an aggregation.
func (p EngineParams) Check() error {
	if p.CalculateRetentionRate && (p.ValueColumn.IsSet() || p.Aggregation.IsSet()) {
		return errors.New("retention rate cannot be combined with a value column or aggregation")
	}
	if p.ValueColumn.IsSet() != p.Aggregation.IsSet() {
		return errors.New("value column and aggregation must be set together")
	}
	if p.PeriodDuration <= 0 {
		return errors.New("period duration must be positive")
	}
	if !p.Period.Valid() {
		return errors.New("unknown cohort period")
	}
	return nil
}

// Engine computes a cohort pivot over a dataset.
//
// Rows are cohort periods (the truncated period of each customer's first
// event). Columns are offsets floor(days since cohort period / duration).
// Cells hold the distinct active customer count, the retention percentage
// when CalculateRetentionRate is set, or the aggregated value column.
type Engine interface {
	ComputeCohort(ctx context.Context, data *models.Dataset, params EngineParams) (*models.CohortMatrix, error)
}
