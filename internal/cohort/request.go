// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cohort

import (
	"fmt"

	"github.com/tomtom215/cohortscope/internal/models"
)

// Resolution is the normalized (value column, aggregation) pair.
type Resolution struct {
	ValueColumn      models.Optional[string]
	Aggregation      models.Optional[Aggregation]
	ComputeRetention bool
}

// ResolveConfig normalizes a raw value column and aggregation choice.
//
// Without a value column the aggregation is dropped and retention is computed.
// With a value column the aggregation defaults to sum and retention is not computed.
// An empty column name counts as no selection.
func ResolveConfig(rawValueColumn models.Optional[string], rawAggregation models.Optional[Aggregation]) Resolution {
	column, ok := rawValueColumn.Get()
	if !ok || column == "" {
		return Resolution{ComputeRetention: true}
	}
	agg, ok := rawAggregation.Get()
	if !ok || agg == "" {
		agg = DefaultAggregation
	}
	return Resolution{
		ValueColumn: models.Some(column),
		Aggregation: models.Some(agg),
	}
}

// Options are the raw choices a caller supplies for one analysis.
type Options struct {
	DateColumn     models.Optional[string]
	CustomerColumn models.Optional[string]
	ValueColumn    models.Optional[string]
	Aggregation    models.Optional[Aggregation]
	Period         Period
	PeriodDuration int
}

// DefaultOptions returns the options used for an automatic first analysis.
func DefaultOptions(dateColumn, customerColumn models.Optional[string]) Options {
	return Options{
		DateColumn:     dateColumn,
		CustomerColumn: customerColumn,
		Period:         DefaultPeriod,
		PeriodDuration: DefaultPeriodDuration,
	}
}

// CanGenerate reports whether both required columns are present.
func (o Options) CanGenerate() bool {
	date, dateOK := o.DateColumn.Get()
	customer, customerOK := o.CustomerColumn.Get()
	return dateOK && customerOK && date != "" && customer != ""
}

// AnalysisRequest is one resolved cohort computation. Build it with NewRequest.
type AnalysisRequest struct {
	DateColumn       string                       `json:"date_column"`
	CustomerColumn   string                       `json:"customer_column"`
	ValueColumn      models.Optional[string]      `json:"value_column"`
	Aggregation      models.Optional[Aggregation] `json:"aggregation"`
	Period           Period                       `json:"period"`
	PeriodDuration   int                          `json:"period_duration"`
	ComputeRetention bool                         `json:"compute_retention"`
}

// NewRequest resolves opts into an AnalysisRequest. It returns ErrCannotGenerate
// when a required column is missing.
func NewRequest(opts Options) (AnalysisRequest, error) {
	if !opts.CanGenerate() {
		return AnalysisRequest{}, ErrCannotGenerate
	}
	period := opts.Period
	if period == "" {
		period = DefaultPeriod
	}
	if !period.Valid() {
		return AnalysisRequest{}, fmt.Errorf("unknown cohort period %q", period)
	}
	duration := opts.PeriodDuration
	if duration == 0 {
		duration = DefaultPeriodDuration
	}
	if duration < 0 {
		return AnalysisRequest{}, fmt.Errorf("period duration must be positive, got %d", duration)
	}

	res := ResolveConfig(opts.ValueColumn, opts.Aggregation)
	if agg, ok := res.Aggregation.Get(); ok && !agg.Valid() {
		return AnalysisRequest{}, fmt.Errorf("unknown aggregation function %q", agg)
	}
	date, _ := opts.DateColumn.Get()
	customer, _ := opts.CustomerColumn.Get()
	return AnalysisRequest{
		DateColumn:       date,
		CustomerColumn:   customer,
		ValueColumn:      res.ValueColumn,
		Aggregation:      res.Aggregation,
		Period:           period,
		PeriodDuration:   duration,
		ComputeRetention: res.ComputeRetention,
	}, nil
}

// IsValueAnalysis reports whether the request aggregates a value column.
func (r AnalysisRequest) IsValueAnalysis() bool {
	return r.ValueColumn.IsSet()
}

// Validate checks the invariants NewRequest guarantees. A failure wraps
// ErrConfigurationInconsistency.
func (r AnalysisRequest) Validate() error {
	switch {
	case r.DateColumn == "" || r.CustomerColumn == "":
		return fmt.Errorf("%w: date and customer columns must be set", ErrConfigurationInconsistency)
	case !r.Period.Valid():
		return fmt.Errorf("%w: unknown period %q", ErrConfigurationInconsistency, r.Period)
	case r.PeriodDuration <= 0:
		return fmt.Errorf("%w: non-positive period duration %d", ErrConfigurationInconsistency, r.PeriodDuration)
	case r.ValueColumn.IsSet() && !r.Aggregation.IsSet():
		return fmt.Errorf("%w: value column without aggregation", ErrConfigurationInconsistency)
	case !r.ValueColumn.IsSet() && r.Aggregation.IsSet():
		return fmt.Errorf("%w: aggregation without value column", ErrConfigurationInconsistency)
	case r.ComputeRetention == r.ValueColumn.IsSet():
		return fmt.Errorf("%w: retention is defined only for user-count analysis", ErrConfigurationInconsistency)
	}
	if agg, ok := r.Aggregation.Get(); ok && !agg.Valid() {
		return fmt.Errorf("%w: unknown aggregation %q", ErrConfigurationInconsistency, agg)
	}
	return nil
}

// Title returns the absolute heatmap title.
func (r AnalysisRequest) Title() string {
	if !r.IsValueAnalysis() {
		return "Cohort Analysis: Active Users"
	}
	return "Cohort Analysis: " + r.MetricLabel()
}

// MetricLabel names the absolute table's cell values.
func (r AnalysisRequest) MetricLabel() string {
	column, ok := r.ValueColumn.Get()
	if !ok {
		return "User Count"
	}
	agg, _ := r.Aggregation.Get()
	return agg.Title() + " of " + column
}
