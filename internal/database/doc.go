// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

// Package database holds the DuckDB layer of Cohortscope.
//
// # Overview
//
// Cleaned datasets live as plain DuckDB tables. The dataset loader turns a raw
// CSV source into a table with MaterializeQuery, and every later read (column
// lists, overviews, previews and cohort pivots) runs SQL against that table.
//
// # Architecture
//
//   - database.go: connection lifecycle and pool configuration
//   - database_utils.go: context timeouts and checkpoints
//   - tables.go: materialization, column introspection, table housekeeping
//   - overview.go: dataset overview and raw previews
//   - cohort_engine.go: the cohort pivot engine (implements cohort.Engine)
//   - identifiers.go: identifier quoting and SQL literal helpers
//
// # Cohort Engine
//
// ComputeCohort assigns each customer to the truncated period of their first
// event, then buckets every event by floor(days since cohort period / duration).
// Cells hold distinct active customers, their share of the cohort size, or an
// aggregate of a value column:
//
//	WITH events AS (...),
//	     first_seen AS (SELECT customer, DATE_TRUNC(unit, MIN(event_at)) ...),
//	     activity AS (... FLOOR(DATE_DIFF('day', cohort_period, event_date) / duration) ...),
//	     sizes AS (...)
//	SELECT cohort_period, cohort_size, period_offset, metric ...
//
// Offsets are returned contiguous from 0 to the largest observed offset; an
// offset with no activity is a nil cell.
//
// # Thread Safety
//
// DB is safe for concurrent use. Tables are never mutated after creation, so
// readers of one dataset generation are isolated from a reload that builds the
// next one.
package database
