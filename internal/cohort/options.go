// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cohort

import (
	"fmt"
	"strings"
)

// Period is the cohort grouping period.
type Period string

const (
	Daily     Period = "D"
	Weekly    Period = "W"
	Monthly   Period = "M"
	Quarterly Period = "Q"
	Yearly    Period = "Y"
)

// DefaultPeriod is offered first to users.
const DefaultPeriod = Monthly

// Periods lists the supported periods in display order.
var Periods = []Period{Daily, Weekly, Monthly, Quarterly, Yearly}

var periodNames = map[Period]string{
	Daily:     "Daily",
	Weekly:    "Weekly",
	Monthly:   "Monthly",
	Quarterly: "Quarterly",
	Yearly:    "Yearly",
}

// Valid reports whether p is a supported period.
func (p Period) Valid() bool {
	_, ok := periodNames[p]
	return ok
}

// DisplayName returns the human name, e.g. "Monthly".
func (p Period) DisplayName() string {
	return periodNames[p]
}

// ParsePeriod accepts a period code (M) or display name (monthly), case-insensitively.
// An empty string yields DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPeriod, nil
	}
	for p, name := range periodNames {
		if strings.EqualFold(s, string(p)) || strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown cohort period %q", s)
}

// Aggregation is the function applied to a value column.
type Aggregation string

const (
	Sum    Aggregation = "sum"
	Mean   Aggregation = "mean"
	Count  Aggregation = "count"
	Median Aggregation = "median"
	// CountDistinct counts distinct values.
	CountDistinct Aggregation = "nunique"
)

// DefaultAggregation is applied when a value column is chosen without a function.
const DefaultAggregation = Sum

// Aggregations lists the supported functions in display order.
var Aggregations = []Aggregation{Sum, Mean, Count, Median, CountDistinct}

// Valid reports whether a is a supported aggregation.
func (a Aggregation) Valid() bool {
	for _, known := range Aggregations {
		if a == known {
			return true
		}
	}
	return false
}

// Title returns the capitalized name used in chart titles, e.g. "Sum".
func (a Aggregation) Title() string {
	if a == "" {
		return ""
	}
	return strings.ToUpper(string(a[:1])) + string(a[1:])
}

// ParseAggregation parses a function name case-insensitively. "distinct" and
// "count_distinct" are accepted for nunique.
func ParseAggregation(s string) (Aggregation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum":
		return Sum, nil
	case "mean", "avg", "average":
		return Mean, nil
	case "count":
		return Count, nil
	case "median":
		return Median, nil
	case "nunique", "distinct", "count_distinct":
		return CountDistinct, nil
	default:
		return "", fmt.Errorf("unknown aggregation function %q", s)
	}
}

// DefaultPeriodDuration is the default period length in days.
const DefaultPeriodDuration = 30

// PeriodDurations are the suggested period lengths in days. Other positive
// values are accepted.
var PeriodDurations = []int{1, 7, 30, 90, 180, 365}
