// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tomtom215/cohortscope/internal/models"
)

// Preview row bounds.
const (
	MinPreviewRows     = 5
	MaxPreviewRows     = 500
	DefaultPreviewRows = 100
)

// ClampPreviewRows maps a requested row count into the preview bounds.
// Zero or negative selects the default.
func ClampPreviewRows(n int) int {
	switch {
	case n <= 0:
		return DefaultPreviewRows
	case n < MinPreviewRows:
		return MinPreviewRows
	case n > MaxPreviewRows:
		return MaxPreviewRows
	default:
		return n
	}
}

// Overview counts transactions and distinct customers. Without a customer
// column UniqueCustomers is zero.
func (db *DB) Overview(ctx context.Context, ds *models.Dataset, customerColumn models.Optional[string]) (*models.DatasetOverview, error) {
	if err := checkTableName(ds.Table); err != nil {
		return nil, err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	overview := &models.DatasetOverview{
		Dataset: ds.Name,
		Columns: len(ds.Columns),
	}

	customers := "0"
	if col, ok := customerColumn.Get(); ok {
		if !ds.HasColumn(col) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
		}
		customers = "COUNT(DISTINCT " + QuoteIdent(col) + ")"
		overview.CustomerColumn = col
	}

	query := "SELECT COUNT(*), " + customers + " FROM " + QuoteIdent(ds.Table)
	if err := db.conn.QueryRowContext(ctx, query).Scan(&overview.Transactions, &overview.UniqueCustomers); err != nil {
		return nil, fmt.Errorf("overview of %s: %w", ds.Name, err)
	}
	return overview, nil
}

// Preview returns the first rows of the dataset rendered as text. The row
// count is clamped with ClampPreviewRows.
func (db *DB) Preview(ctx context.Context, ds *models.Dataset, rows int) (*models.PreviewTable, error) {
	if err := checkTableName(ds.Table); err != nil {
		return nil, err
	}
	if len(ds.Columns) == 0 {
		return &models.PreviewTable{Columns: []string{}, Rows: [][]*string{}}, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	projections := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		projections[i] = "CAST(" + QuoteIdent(c) + " AS VARCHAR)"
	}
	query := fmt.Sprintf("SELECT %s FROM %s LIMIT %d",
		strings.Join(projections, ", "), QuoteIdent(ds.Table), ClampPreviewRows(rows))

	result, err := queryAndScan(ctx, db.conn, query, nil, func(r *sql.Rows) ([]*string, error) {
		cells := make([]sql.NullString, len(ds.Columns))
		dest := make([]interface{}, len(cells))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := r.Scan(dest...); err != nil {
			return nil, err
		}
		row := make([]*string, len(cells))
		for i, c := range cells {
			if c.Valid {
				v := c.String
				row[i] = &v
			}
		}
		return row, nil
	})
	if err != nil {
		return nil, fmt.Errorf("preview of %s: %w", ds.Name, err)
	}
	if result == nil {
		result = [][]*string{}
	}
	return &models.PreviewTable{Columns: append([]string(nil), ds.Columns...), Rows: result}, nil
}
