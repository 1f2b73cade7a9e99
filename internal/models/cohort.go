// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package models

import "time"

// CohortMatrix is the pivot produced by the cohort engine: one row per cohort
// period, one column per period offset since acquisition.
type CohortMatrix struct {
	// Periods is the row index in ascending order.
	Periods []time.Time

	// Sizes holds each cohort's starting population, aligned with Periods.
	Sizes []int64

	// Offsets are the column labels 0, 1, 2, ... up to the largest observed offset.
	Offsets []int

	// Cells is indexed [row][offset]. A nil cell had no activity.
	Cells [][]*float64
}

// CohortTable is the display form of a CohortMatrix. The cohort period index
// has been moved into a regular column and rendered as a calendar date.
type CohortTable struct {
	Offsets []int       `json:"offsets"`
	Rows    []CohortRow `json:"rows"`
}

// CohortRow is one cohort in a CohortTable.
type CohortRow struct {
	CohortPeriod string     `json:"cohort_period"` // YYYY-MM-DD
	CohortSize   int64      `json:"cohort_size"`
	Values       []*float64 `json:"values"`
}

// Row returns the row for a cohort period date, if present.
func (t *CohortTable) Row(period string) (CohortRow, bool) {
	for _, r := range t.Rows {
		if r.CohortPeriod == period {
			return r, true
		}
	}
	return CohortRow{}, false
}

// Value returns the cell for a cohort period and offset, if present and non-empty.
func (t *CohortTable) Value(period string, offset int) (float64, bool) {
	row, ok := t.Row(period)
	if !ok || offset < 0 || offset >= len(row.Values) || row.Values[offset] == nil {
		return 0, false
	}
	return *row.Values[offset], true
}
