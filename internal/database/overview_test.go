// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tomtom215/cohortscope/internal/models"
)

func TestClampPreviewRows(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 100},
		{-3, 100},
		{1, 5},
		{5, 5},
		{42, 42},
		{500, 500},
		{10000, 500},
	}
	for _, tt := range tests {
		if got := ClampPreviewRows(tt.in); got != tt.want {
			t.Errorf("ClampPreviewRows(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestOverview(t *testing.T) {
	db, ds := setupOrders(t)
	ctx := context.Background()

	got, err := db.Overview(ctx, ds, models.Some("customer_id"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Transactions != 5 || got.UniqueCustomers != 3 || got.Columns != 4 {
		t.Errorf("Overview() = %+v", got)
	}
	if got.CustomerColumn != "customer_id" {
		t.Errorf("CustomerColumn = %q", got.CustomerColumn)
	}

	none, err := db.Overview(ctx, ds, models.None[string]())
	if err != nil {
		t.Fatal(err)
	}
	if none.UniqueCustomers != 0 || none.Transactions != 5 {
		t.Errorf("Overview() without customer column = %+v", none)
	}

	if _, err := db.Overview(ctx, ds, models.Some("missing")); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("err = %v, want ErrUnknownColumn", err)
	}
}

func TestPreview(t *testing.T) {
	db := setupTestDB(t)
	ds := datasetFor(t, db, "range", "ds_range_g1",
		"SELECT i AS n, CASE WHEN i % 2 = 0 THEN NULL ELSE 'odd' END AS label FROM range(20) t(i)")

	preview, err := db.Preview(context.Background(), ds, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(preview.Rows) != MinPreviewRows {
		t.Fatalf("rows = %d, want %d", len(preview.Rows), MinPreviewRows)
	}
	if fmt.Sprint(preview.Columns) != "[n label]" {
		t.Errorf("columns = %v", preview.Columns)
	}

	var nulls, odds int
	for _, row := range preview.Rows {
		if row[0] == nil {
			t.Error("n should never be NULL")
		}
		if row[1] == nil {
			nulls++
		} else if *row[1] == "odd" {
			odds++
		}
	}
	if nulls == 0 || odds == 0 {
		t.Errorf("expected both NULL and text labels, nulls=%d odds=%d", nulls, odds)
	}

	all, err := db.Preview(context.Background(), ds, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Rows) != 20 {
		t.Errorf("rows = %d, want all 20", len(all.Rows))
	}
}
