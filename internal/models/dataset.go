// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package models

import "time"

// Dataset is a cleaned dataset materialized as an engine table. It is immutable
// once built; a reload produces a new Dataset with a higher Generation.
type Dataset struct {
	// Name is the catalog identity, e.g. "E-commerce Data 1".
	Name string `json:"name"`

	// Table is the engine table holding the cleaned rows.
	Table string `json:"-"`

	// Columns lists column names in table order.
	Columns []string `json:"columns"`

	RowCount   int64     `json:"row_count"`
	LoadedAt   time.Time `json:"loaded_at"`
	Generation uint64    `json:"generation"`
}

// HasColumn reports whether name is one of the dataset's columns.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// CacheInfo describes the cache state of one dataset.
type CacheInfo struct {
	Dataset      string    `json:"dataset"`
	Cached       bool      `json:"cached"`
	CachedAt     time.Time `json:"cached_at,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	HoursLeft    float64   `json:"hours_left"`
	Fresh        bool      `json:"fresh"`         // loaded within the last hour
	ExpiringSoon bool      `json:"expiring_soon"` // less than an hour left
}

// DatasetInfo is a catalog entry.
type DatasetInfo struct {
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	ValueColumns []string  `json:"value_columns"`
	Cache        CacheInfo `json:"cache"`
}

// DatasetOverview summarizes a loaded dataset.
type DatasetOverview struct {
	Dataset         string `json:"dataset"`
	Transactions    int64  `json:"transactions"`
	Columns         int    `json:"columns"`
	UniqueCustomers int64  `json:"unique_customers"`
	CustomerColumn  string `json:"customer_column,omitempty"`
}

// PreviewTable holds raw rows for display. Values are rendered as strings; NULL is nil.
type PreviewTable struct {
	Columns []string    `json:"columns"`
	Rows    [][]*string `json:"rows"`
}
