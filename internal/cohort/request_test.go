// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cohort

import (
	"errors"
	"testing"

	"github.com/tomtom215/cohortscope/internal/models"
)

func TestResolveConfig(t *testing.T) {
	tests := []struct {
		name          string
		value         models.Optional[string]
		agg           models.Optional[Aggregation]
		wantValue     models.Optional[string]
		wantAgg       models.Optional[Aggregation]
		wantRetention bool
	}{
		{
			name:          "no value column no aggregation",
			wantRetention: true,
		},
		{
			name:          "aggregation without value column is dropped",
			agg:           models.Some(Median),
			wantRetention: true,
		},
		{
			name:          "empty value column counts as no selection",
			value:         models.Some(""),
			agg:           models.Some(Sum),
			wantRetention: true,
		},
		{
			name:      "value column defaults to sum",
			value:     models.Some("TotalPrice"),
			wantValue: models.Some("TotalPrice"),
			wantAgg:   models.Some(Sum),
		},
		{
			name:      "value column keeps explicit aggregation",
			value:     models.Some("InvoiceNo"),
			agg:       models.Some(CountDistinct),
			wantValue: models.Some("InvoiceNo"),
			wantAgg:   models.Some(CountDistinct),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveConfig(tt.value, tt.agg)
			if got.ValueColumn != tt.wantValue {
				t.Errorf("ValueColumn = %v, want %v", got.ValueColumn, tt.wantValue)
			}
			if got.Aggregation != tt.wantAgg {
				t.Errorf("Aggregation = %v, want %v", got.Aggregation, tt.wantAgg)
			}
			if got.ComputeRetention != tt.wantRetention {
				t.Errorf("ComputeRetention = %v, want %v", got.ComputeRetention, tt.wantRetention)
			}
		})
	}
}

// Every combination of inputs must resolve to a consistent pair, with
// retention computed exactly when no value column survives.
func TestResolveConfig_Totality(t *testing.T) {
	values := []models.Optional[string]{
		models.None[string](), models.Some(""), models.Some("Sales"), models.Some("Profit"),
	}
	aggs := []models.Optional[Aggregation]{models.None[Aggregation](), models.Some(Aggregation(""))}
	for _, a := range Aggregations {
		aggs = append(aggs, models.Some(a))
	}

	for _, v := range values {
		for _, a := range aggs {
			res := ResolveConfig(v, a)
			if res.ValueColumn.IsSet() != res.Aggregation.IsSet() {
				t.Errorf("ResolveConfig(%v, %v) = inconsistent pair %+v", v, a, res)
			}
			if res.ComputeRetention == res.ValueColumn.IsSet() {
				t.Errorf("ResolveConfig(%v, %v): retention=%v with value column set=%v",
					v, a, res.ComputeRetention, res.ValueColumn.IsSet())
			}
			if agg, ok := res.Aggregation.Get(); ok && agg == "" {
				t.Errorf("ResolveConfig(%v, %v) produced empty aggregation", v, a)
			}
		}
	}
}

func TestNewRequest(t *testing.T) {
	date, customer := models.Some("InvoiceDateTime"), models.Some("CustomerID")

	t.Run("defaults applied", func(t *testing.T) {
		req, err := NewRequest(Options{DateColumn: date, CustomerColumn: customer})
		if err != nil {
			t.Fatalf("NewRequest() error = %v", err)
		}
		if req.Period != Monthly || req.PeriodDuration != 30 {
			t.Errorf("got period %s duration %d, want M 30", req.Period, req.PeriodDuration)
		}
		if !req.ComputeRetention {
			t.Error("user-count analysis should compute retention")
		}
		if err := req.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("missing customer column", func(t *testing.T) {
		_, err := NewRequest(Options{DateColumn: date})
		if !errors.Is(err, ErrCannotGenerate) {
			t.Errorf("error = %v, want ErrCannotGenerate", err)
		}
	})

	t.Run("value analysis", func(t *testing.T) {
		req, err := NewRequest(Options{
			DateColumn:     date,
			CustomerColumn: customer,
			ValueColumn:    models.Some("TotalPrice"),
			Period:         Weekly,
			PeriodDuration: 7,
		})
		if err != nil {
			t.Fatalf("NewRequest() error = %v", err)
		}
		if agg, _ := req.Aggregation.Get(); agg != Sum {
			t.Errorf("aggregation = %q, want sum", agg)
		}
		if req.ComputeRetention {
			t.Error("value analysis must not compute retention")
		}
		if got := req.Title(); got != "Cohort Analysis: Sum of TotalPrice" {
			t.Errorf("Title() = %q", got)
		}
	})

	t.Run("aggregation dropped without value column", func(t *testing.T) {
		req, err := NewRequest(Options{
			DateColumn:     date,
			CustomerColumn: customer,
			Aggregation:    models.Some(Aggregation("max")),
		})
		if err != nil {
			t.Fatalf("NewRequest() error = %v", err)
		}
		if req.Aggregation.IsSet() || !req.ComputeRetention {
			t.Errorf("got aggregation %v retention %v, want none and true", req.Aggregation, req.ComputeRetention)
		}
	})

	t.Run("invalid inputs", func(t *testing.T) {
		bad := []Options{
			{DateColumn: date, CustomerColumn: customer, Period: "X"},
			{DateColumn: date, CustomerColumn: customer, PeriodDuration: -1},
			{DateColumn: date, CustomerColumn: customer, ValueColumn: models.Some("Sales"), Aggregation: models.Some(Aggregation("max"))},
		}
		for i, opts := range bad {
			if _, err := NewRequest(opts); err == nil {
				t.Errorf("case %d: expected error", i)
			}
		}
	})
}

func TestAnalysisRequest_Validate(t *testing.T) {
	base := AnalysisRequest{
		DateColumn:       "OrderedDateTime",
		CustomerColumn:   "Customer_Id",
		Period:           Monthly,
		PeriodDuration:   30,
		ComputeRetention: true,
	}

	tests := []struct {
		name   string
		mutate func(*AnalysisRequest)
	}{
		{"value without aggregation", func(r *AnalysisRequest) {
			r.ValueColumn = models.Some("Sales")
			r.ComputeRetention = false
		}},
		{"aggregation without value", func(r *AnalysisRequest) { r.Aggregation = models.Some(Sum) }},
		{"retention with value", func(r *AnalysisRequest) {
			r.ValueColumn = models.Some("Sales")
			r.Aggregation = models.Some(Sum)
		}},
		{"no retention without value", func(r *AnalysisRequest) { r.ComputeRetention = false }},
		{"missing date", func(r *AnalysisRequest) { r.DateColumn = "" }},
		{"bad duration", func(r *AnalysisRequest) { r.PeriodDuration = 0 }},
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("base request should be valid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			if err := req.Validate(); !errors.Is(err, ErrConfigurationInconsistency) {
				t.Errorf("Validate() = %v, want ErrConfigurationInconsistency", err)
			}
		})
	}
}
