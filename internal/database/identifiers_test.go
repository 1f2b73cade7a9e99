// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package database

import "testing"

func TestQuoting(t *testing.T) {
	tests := []struct {
		in        string
		wantIdent string
		wantLit   string
	}{
		{"CustomerID", `"CustomerID"`, `'CustomerID'`},
		{`we"ird`, `"we""ird"`, `'we"ird'`},
		{"O'Brien", `"O'Brien"`, `'O''Brien'`},
	}
	for _, tt := range tests {
		if got := QuoteIdent(tt.in); got != tt.wantIdent {
			t.Errorf("QuoteIdent(%q) = %s, want %s", tt.in, got, tt.wantIdent)
		}
		if got := QuoteLiteral(tt.in); got != tt.wantLit {
			t.Errorf("QuoteLiteral(%q) = %s, want %s", tt.in, got, tt.wantLit)
		}
	}
}

func TestCSVSourceExpr(t *testing.T) {
	tests := []struct {
		name string
		src  CSVSource
		want string
	}{
		{
			name: "plain",
			src:  CSVSource{Path: "data/ecommerce_data_2.csv"},
			want: "read_csv('data/ecommerce_data_2.csv', header = true)",
		},
		{
			name: "encoding and sorted varchar types",
			src: CSVSource{
				Path:     "/srv/it's.csv",
				Encoding: "latin-1",
				Varchar:  []string{"InvoiceNo", "CustomerID"},
			},
			want: "read_csv('/srv/it''s.csv', header = true, encoding = 'latin-1', types = {'CustomerID': 'VARCHAR', 'InvoiceNo': 'VARCHAR'})",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.src.Expr(); got != tt.want {
				t.Errorf("Expr() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestValidTableName(t *testing.T) {
	valid := []string{"ds_ecommerce_1_g1", "a", "t_2"}
	invalid := []string{"", "_x", "Ds", "ds-1", "ds 1"}
	for _, n := range valid {
		if !ValidTableName(n) {
			t.Errorf("ValidTableName(%q) = false", n)
		}
	}
	for _, n := range invalid {
		if ValidTableName(n) {
			t.Errorf("ValidTableName(%q) = true", n)
		}
	}
}
