// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// MaterializeQuery creates table from the result of query. The table must
// not exist yet; managed tables are write-once.
func (db *DB) MaterializeQuery(ctx context.Context, table, query string) error {
	if err := checkTableName(table); err != nil {
		return err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stmt := "CREATE TABLE " + QuoteIdent(table) + " AS " + query
	if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("materialize %s: %w", table, err)
	}
	return nil
}

// TableColumns returns the column names of table in ordinal order.
func (db *DB) TableColumns(ctx context.Context, table string) ([]string, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	columns, err := queryAndScan(ctx, db.conn, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position`,
		[]interface{}{table},
		func(rows *sql.Rows) (string, error) {
			var name string
			err := rows.Scan(&name)
			return name, err
		})
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return columns, nil
}

// CountRows returns the number of rows in table.
func (db *DB) CountRows(ctx context.Context, table string) (int64, error) {
	if err := checkTableName(table); err != nil {
		return 0, err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuoteIdent(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows of %s: %w", table, err)
	}
	return n, nil
}

// DropTable removes table if it exists.
func (db *DB) DropTable(ctx context.Context, table string) error {
	if err := checkTableName(table); err != nil {
		return err
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+QuoteIdent(table)); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	return nil
}

// ListTables returns the base tables whose name starts with prefix, sorted.
func (db *DB) ListTables(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tables, err := queryAndScan(ctx, db.conn, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE' AND starts_with(table_name, ?)
		ORDER BY table_name`,
		[]interface{}{prefix},
		func(rows *sql.Rows) (string, error) {
			var name string
			err := rows.Scan(&name)
			return name, err
		})
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// scanFunc is a function that scans a single row into a result type
type scanFunc[T any] func(*sql.Rows) (T, error)

// queryAndScan executes a query and scans all rows using the provided scan function
func queryAndScan[T any](ctx context.Context, db *sql.DB, query string, args []interface{}, scan scanFunc[T]) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeWithLog(rows, "rows")

	var results []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
