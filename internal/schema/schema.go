// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

// Package schema derives the canonical date, customer and value columns for a
// dataset from its column list. Everything here is a pure lookup.
package schema

import (
	"strings"

	"github.com/tomtom215/cohortscope/internal/models"
)

// NoSelectionLabel is how the "no selection" choice is displayed.
const NoSelectionLabel = "None"

// Dataset identities known to the resolver.
const (
	Ecommerce1 = "E-commerce Data 1"
	Ecommerce2 = "E-commerce Data 2"
)

// profile holds the canonical column names for one dataset identity.
type profile struct {
	date         string
	customer     string
	value        string // empty: no default value column
	valueColumns []string
}

var profiles = map[string]profile{
	Ecommerce1: {
		date:         "InvoiceDateTime",
		customer:     "CustomerID",
		value:        "TotalPrice",
		valueColumns: []string{"InvoiceNo", "Quantity", "StockCode", "TotalPrice"},
	},
	Ecommerce2: {
		date:         "OrderedDateTime",
		customer:     "Customer_Id",
		valueColumns: []string{"Sales", "Profit", "Product"},
	},
}

// Columns is the result of AutoDetect.
type Columns struct {
	Date     models.Optional[string] `json:"date_column"`
	Customer models.Optional[string] `json:"customer_column"`
	Value    models.Optional[string] `json:"default_value_column"`
}

// AutoDetect resolves the date, customer and default value columns.
//
// For a known dataset each canonical name is used when present in columns.
// Otherwise date and customer fall back to the first column and the value
// column is absent. An unknown dataset yields all three absent.
func AutoDetect(datasetName string, columns []string) Columns {
	p, ok := profiles[datasetName]
	if !ok {
		return Columns{}
	}
	var first models.Optional[string]
	if len(columns) > 0 {
		first = models.Some(columns[0])
	}

	detected := Columns{Date: first, Customer: first}
	if contains(columns, p.date) {
		detected.Date = models.Some(p.date)
	}
	if contains(columns, p.customer) {
		detected.Customer = models.Some(p.customer)
	}
	if p.value != "" && contains(columns, p.value) {
		detected.Value = models.Some(p.value)
	}
	return detected
}

// ValueColumns returns the value column whitelist for a dataset identity,
// or an empty slice when the identity is unknown.
func ValueColumns(datasetName string) []string {
	p, ok := profiles[datasetName]
	if !ok {
		return []string{}
	}
	return append([]string{}, p.valueColumns...)
}

// AllowedValueColumns lists the value columns offered for a dataset, in
// canonical order, restricted to those present in columns.
func AllowedValueColumns(datasetName string, columns []string) []string {
	p, ok := profiles[datasetName]
	if !ok {
		return []string{}
	}
	allowed := make([]string, 0, len(p.valueColumns))
	for _, c := range p.valueColumns {
		if contains(columns, c) {
			allowed = append(allowed, c)
		}
	}
	return allowed
}

// WithNoSelection prepends the "no selection" choice to columns.
func WithNoSelection(columns []string) []models.Optional[string] {
	out := make([]models.Optional[string], 0, len(columns)+1)
	out = append(out, models.None[string]())
	for _, c := range columns {
		out = append(out, models.Some(c))
	}
	return out
}

// ParseChoice converts a submitted column choice to an Optional. Empty input
// and the "None" label mean no selection.
func ParseChoice(s string) models.Optional[string] {
	s = strings.TrimSpace(s)
	if s == "" || s == NoSelectionLabel {
		return models.None[string]()
	}
	return models.Some(s)
}

func contains(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
