// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/cohortscope/internal/cohort"
	"github.com/tomtom215/cohortscope/internal/logging"
	"github.com/tomtom215/cohortscope/internal/models"
)

// Compile-time check that DB is a cohort engine.
var _ cohort.Engine = (*DB)(nil)

var truncUnits = map[cohort.Period]string{
	cohort.Daily:     "day",
	cohort.Weekly:    "week",
	cohort.Monthly:   "month",
	cohort.Quarterly: "quarter",
	cohort.Yearly:    "year",
}

var aggregateExprs = map[cohort.Aggregation]string{
	cohort.Sum:           "SUM(a.metric_value)",
	cohort.Mean:          "AVG(a.metric_value)",
	cohort.Count:         "COUNT(a.metric_value)",
	cohort.Median:        "MEDIAN(a.metric_value)",
	cohort.CountDistinct: "COUNT(DISTINCT a.metric_value)",
}

type cohortCell struct {
	period time.Time
	size   int64
	offset int
	value  sql.NullFloat64
}

// ComputeCohort builds the cohort pivot for data. See the package
// documentation for the SQL shape.
func (db *DB) ComputeCohort(ctx context.Context, data *models.Dataset, params cohort.EngineParams) (*models.CohortMatrix, error) {
	if err := params.Check(); err != nil {
		return nil, err
	}
	if err := checkTableName(data.Table); err != nil {
		return nil, err
	}
	for _, col := range []string{params.DateColumn, params.CustomerColumn, params.ValueColumn.OrElse(params.DateColumn)} {
		if !data.HasColumn(col) {
			return nil, fmt.Errorf("%w: %q in %s", ErrUnknownColumn, col, data.Name)
		}
	}

	query, err := buildCohortQuery(data.Table, params)
	if err != nil {
		return nil, err
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	started := time.Now()
	cells, err := queryAndScan(ctx, db.conn, query, nil, func(rows *sql.Rows) (cohortCell, error) {
		var c cohortCell
		var offset int64
		if err := rows.Scan(&c.period, &c.size, &offset, &c.value); err != nil {
			return c, err
		}
		c.offset = int(offset)
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("cohort query on %s: %w", data.Name, err)
	}

	matrix := pivot(cells)
	logging.Debug().
		Str("dataset", data.Name).
		Str("period", string(params.Period)).
		Int("duration", params.PeriodDuration).
		Bool("retention", params.CalculateRetentionRate).
		Int("cohorts", len(matrix.Periods)).
		Int("offsets", len(matrix.Offsets)).
		Dur("duration_ms", time.Since(started)).
		Msg("Cohort pivot computed")
	return matrix, nil
}

func buildCohortQuery(table string, params cohort.EngineParams) (string, error) {
	unit, ok := truncUnits[params.Period]
	if !ok {
		return "", fmt.Errorf("unknown cohort period %q", params.Period)
	}

	valueProjection := ""
	metric := "COUNT(DISTINCT a.customer)"
	switch {
	case params.CalculateRetentionRate:
		metric = "ROUND(COUNT(DISTINCT a.customer) * 100.0 / s.cohort_size, 2)"
	case params.ValueColumn.IsSet():
		col, _ := params.ValueColumn.Get()
		agg, _ := params.Aggregation.Get()
		expr, ok := aggregateExprs[agg]
		if !ok {
			return "", fmt.Errorf("unknown aggregation %q", agg)
		}
		valueProjection = ", " + QuoteIdent(col) + " AS metric_value"
		metric = expr
	}

	date := QuoteIdent(params.DateColumn)
	customer := QuoteIdent(params.CustomerColumn)

	return fmt.Sprintf(`
		WITH events AS (
			SELECT
				CAST(%[1]s AS VARCHAR) AS customer,
				CAST(%[2]s AS TIMESTAMP) AS event_at%[3]s
			FROM %[4]s
			WHERE %[1]s IS NOT NULL AND %[2]s IS NOT NULL
		),
		first_seen AS (
			-- Each customer belongs to the period of their first event
			SELECT
				customer,
				CAST(DATE_TRUNC('%[5]s', MIN(event_at)) AS DATE) AS cohort_period
			FROM events
			GROUP BY customer
		),
		activity AS (
			SELECT
				f.cohort_period,
				CAST(FLOOR(DATE_DIFF('day', f.cohort_period, CAST(e.event_at AS DATE)) / %[6]d) AS BIGINT) AS period_offset,
				e.*
			FROM events e
			JOIN first_seen f ON e.customer = f.customer
		),
		sizes AS (
			SELECT cohort_period, COUNT(*) AS cohort_size
			FROM first_seen
			GROUP BY cohort_period
		)
		SELECT
			a.cohort_period,
			s.cohort_size,
			a.period_offset,
			CAST(%[7]s AS DOUBLE) AS cell
		FROM activity a
		JOIN sizes s ON a.cohort_period = s.cohort_period
		GROUP BY a.cohort_period, s.cohort_size, a.period_offset
		ORDER BY a.cohort_period, a.period_offset
	`, customer, date, valueProjection, QuoteIdent(table), unit, params.PeriodDuration, metric), nil
}

// pivot turns cohort cells ordered by period and offset into a matrix with
// contiguous offsets.
func pivot(cells []cohortCell) *models.CohortMatrix {
	matrix := &models.CohortMatrix{
		Periods: []time.Time{},
		Sizes:   []int64{},
		Offsets: []int{},
		Cells:   [][]*float64{},
	}
	if len(cells) == 0 {
		return matrix
	}

	maxOffset := 0
	for _, c := range cells {
		if c.offset > maxOffset {
			maxOffset = c.offset
		}
	}
	for i := 0; i <= maxOffset; i++ {
		matrix.Offsets = append(matrix.Offsets, i)
	}

	row := -1
	for _, c := range cells {
		if row < 0 || !matrix.Periods[row].Equal(c.period) {
			matrix.Periods = append(matrix.Periods, c.period)
			matrix.Sizes = append(matrix.Sizes, c.size)
			matrix.Cells = append(matrix.Cells, make([]*float64, maxOffset+1))
			row++
		}
		if c.value.Valid {
			v := c.value.Float64
			matrix.Cells[row][c.offset] = &v
		}
	}
	return matrix
}
