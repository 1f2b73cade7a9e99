// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cohort

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/cohortscope/internal/models"
)

// recordingEngine returns a fixed matrix and records every call.
type recordingEngine struct {
	calls   []EngineParams
	failOn  func(EngineParams) error
	results func(EngineParams) *models.CohortMatrix
}

func (e *recordingEngine) ComputeCohort(_ context.Context, _ *models.Dataset, p EngineParams) (*models.CohortMatrix, error) {
	e.calls = append(e.calls, p)
	if e.failOn != nil {
		if err := e.failOn(p); err != nil {
			return nil, err
		}
	}
	if e.results != nil {
		return e.results(p), nil
	}
	return sampleMatrix(p.CalculateRetentionRate), nil
}

func f(v float64) *float64 { return &v }

// sampleMatrix mirrors three customers: two acquired in January (one returns in
// February) and one acquired in February.
func sampleMatrix(retention bool) *models.CohortMatrix {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	cells := [][]*float64{{f(2), f(1)}, {f(1), nil}}
	if retention {
		cells = [][]*float64{{f(100), f(50)}, {f(100), nil}}
	}
	return &models.CohortMatrix{
		Periods: []time.Time{jan, feb},
		Sizes:   []int64{2, 1},
		Offsets: []int{0, 1},
		Cells:   cells,
	}
}

func testDataset() *models.Dataset {
	return &models.Dataset{
		Name:       "E-commerce Data 1",
		Table:      "ds_test",
		Columns:    []string{"InvoiceDateTime", "CustomerID", "TotalPrice"},
		Generation: 3,
	}
}

func userCountRequest(t *testing.T) AnalysisRequest {
	t.Helper()
	req, err := NewRequest(DefaultOptions(models.Some("InvoiceDateTime"), models.Some("CustomerID")))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	return req
}

func TestGenerate_UserCountCallsEngineTwice(t *testing.T) {
	engine := &recordingEngine{}
	o := NewOrchestrator(engine)

	res, err := o.Generate(context.Background(), testDataset(), userCountRequest(t))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(engine.calls) != 2 {
		t.Fatalf("engine calls = %d, want 2", len(engine.calls))
	}
	if engine.calls[0].CalculateRetentionRate {
		t.Error("first call should compute absolute values")
	}
	ret := engine.calls[1]
	if !ret.CalculateRetentionRate || ret.ValueColumn.IsSet() || ret.Aggregation.IsSet() {
		t.Errorf("retention call params = %+v", ret)
	}

	if res.Percent == nil {
		t.Fatal("user-count analysis should produce a percent table")
	}
	if v, ok := res.Percent.Value("2024-01-01", 1); !ok || v != 50 {
		t.Errorf("January period-1 retention = %v, %v; want 50", v, ok)
	}
	if v, ok := res.Percent.Value("2024-02-01", 0); !ok || v != 100 {
		t.Errorf("February period-0 retention = %v, %v; want 100", v, ok)
	}
	if res.Generation != 3 || res.Dataset != "E-commerce Data 1" {
		t.Errorf("result provenance = %s/%d", res.Dataset, res.Generation)
	}
}

func TestGenerate_ValueAnalysisHasNoPercent(t *testing.T) {
	engine := &recordingEngine{}
	o := NewOrchestrator(engine)

	req, err := NewRequest(Options{
		DateColumn:     models.Some("InvoiceDateTime"),
		CustomerColumn: models.Some("CustomerID"),
		ValueColumn:    models.Some("TotalPrice"),
		Period:         Monthly,
		PeriodDuration: 30,
	})
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}

	res, err := o.Generate(context.Background(), testDataset(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(engine.calls) != 1 {
		t.Fatalf("engine calls = %d, want 1", len(engine.calls))
	}
	if agg, _ := engine.calls[0].Aggregation.Get(); agg != Sum {
		t.Errorf("engine aggregation = %q, want sum", agg)
	}
	if res.Percent != nil {
		t.Error("value analysis must not produce a percent table")
	}
}

func TestGenerate_RetentionFailureDiscardsAbsolute(t *testing.T) {
	boom := errors.New("engine exploded")
	engine := &recordingEngine{failOn: func(p EngineParams) error {
		if p.CalculateRetentionRate {
			return boom
		}
		return nil
	}}
	o := NewOrchestrator(engine)

	res, err := o.Generate(context.Background(), testDataset(), userCountRequest(t))
	if res != nil {
		t.Error("no partial result may be returned")
	}
	var compErr *ComputationError
	if !errors.As(err, &compErr) {
		t.Fatalf("error = %v, want *ComputationError", err)
	}
	if compErr.Stage != StageRetention {
		t.Errorf("stage = %q, want retention", compErr.Stage)
	}
	if !errors.Is(err, boom) {
		t.Error("engine error should be wrapped")
	}
}

func TestGenerate_AbsoluteFailureSkipsRetention(t *testing.T) {
	engine := &recordingEngine{failOn: func(EngineParams) error {
		return errors.New("could not convert string to float")
	}}
	o := NewOrchestrator(engine)

	_, err := o.Generate(context.Background(), testDataset(), userCountRequest(t))
	var compErr *ComputationError
	if !errors.As(err, &compErr) || compErr.Stage != StageAbsolute {
		t.Fatalf("error = %v, want absolute ComputationError", err)
	}
	if len(engine.calls) != 1 {
		t.Errorf("engine calls = %d, want 1", len(engine.calls))
	}
}

func TestGenerate_InconsistentRequestNeverReachesEngine(t *testing.T) {
	engine := &recordingEngine{}
	o := NewOrchestrator(engine)

	req := userCountRequest(t)
	req.Aggregation = models.Some(Mean)

	if _, err := o.Generate(context.Background(), testDataset(), req); !errors.Is(err, ErrConfigurationInconsistency) {
		t.Fatalf("error = %v, want ErrConfigurationInconsistency", err)
	}
	if len(engine.calls) != 0 {
		t.Errorf("engine calls = %d, want 0", len(engine.calls))
	}
}

func TestToTable(t *testing.T) {
	m := sampleMatrix(false)
	m.Periods[0] = time.Date(2024, 1, 1, 13, 45, 0, 0, time.UTC)

	table := ToTable(m)
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	jan := table.Rows[0]
	if jan.CohortPeriod != "2024-01-01" {
		t.Errorf("cohort_period = %q, want plain date", jan.CohortPeriod)
	}
	if jan.CohortSize != 2 {
		t.Errorf("cohort_size = %d, want 2", jan.CohortSize)
	}
	if *jan.Values[0] != 2 || *jan.Values[1] != 1 {
		t.Errorf("values = %v", jan.Values)
	}
	if table.Rows[1].Values[1] != nil {
		t.Error("empty cell should stay nil")
	}
}
