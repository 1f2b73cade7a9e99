// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cohort

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/cohortscope/internal/logging"
	"github.com/tomtom215/cohortscope/internal/metrics"
	"github.com/tomtom215/cohortscope/internal/models"
)

// periodDateLayout renders cohort periods as plain calendar dates.
const periodDateLayout = "2006-01-02"

// Result is one completed analysis: the absolute table and, for user-count
// analysis, the retention percentage table.
type Result struct {
	Dataset     string              `json:"dataset"`
	Generation  uint64              `json:"generation"`
	Request     AnalysisRequest     `json:"request"`
	Absolute    models.CohortTable  `json:"absolute"`
	Percent     *models.CohortTable `json:"percent"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// Orchestrator runs analyses against an Engine. It holds no per-session state
// and is safe for concurrent use.
type Orchestrator struct {
	engine Engine
	now    func() time.Time
}

// NewOrchestrator creates an Orchestrator backed by engine.
func NewOrchestrator(engine Engine) *Orchestrator {
	return &Orchestrator{engine: engine, now: time.Now}
}

// Generate computes the cohort result for req over data.
//
// The engine is called exactly twice for user-count analysis (absolute then
// retention) and exactly once for value analysis. Any engine failure returns a
// *ComputationError and no Result.
func (o *Orchestrator) Generate(ctx context.Context, data *models.Dataset, req AnalysisRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Rejected analysis request that bypassed resolution")
		return nil, err
	}
	if data == nil {
		return nil, errors.New("generate: dataset is nil")
	}

	started := o.now()
	result, stage, err := o.run(ctx, data, req)
	metrics.RecordCohortGeneration(string(req.Period), req.IsValueAnalysis(), time.Since(started), stage)
	if err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("dataset", data.Name).
			Str("stage", stage).
			Msg("Cohort generation failed")
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Str("dataset", data.Name).
		Str("period", string(req.Period)).
		Int("duration_days", req.PeriodDuration).
		Bool("value_analysis", req.IsValueAnalysis()).
		Int("cohorts", len(result.Absolute.Rows)).
		Msg("Cohort generation complete")
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, data *models.Dataset, req AnalysisRequest) (*Result, string, error) {
	absParams := EngineParams{
		DateColumn:     req.DateColumn,
		CustomerColumn: req.CustomerColumn,
		Period:         req.Period,
		PeriodDuration: req.PeriodDuration,
		ValueColumn:    req.ValueColumn,
		Aggregation:    req.Aggregation,
	}
	absolute, err := o.call(ctx, data, absParams)
	if err != nil {
		return nil, StageAbsolute, &ComputationError{Stage: StageAbsolute, Err: err}
	}

	result := &Result{
		Dataset:     data.Name,
		Generation:  data.Generation,
		Request:     req,
		Absolute:    ToTable(absolute),
		GeneratedAt: o.now(),
	}

	if req.ComputeRetention {
		retParams := absParams
		retParams.CalculateRetentionRate = true
		retParams.ValueColumn = models.None[string]()
		retParams.Aggregation = models.None[Aggregation]()

		percent, err := o.call(ctx, data, retParams)
		if err != nil {
			return nil, StageRetention, &ComputationError{Stage: StageRetention, Err: err}
		}
		table := ToTable(percent)
		result.Percent = &table
	}
	return result, "", nil
}

func (o *Orchestrator) call(ctx context.Context, data *models.Dataset, params EngineParams) (*models.CohortMatrix, error) {
	if err := params.Check(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigurationInconsistency, err)
	}
	metrics.RecordEngineCall(params.CalculateRetentionRate)
	matrix, err := o.engine.ComputeCohort(ctx, data, params)
	if err != nil {
		return nil, err
	}
	if matrix == nil {
		return nil, errors.New("engine returned no result")
	}
	return matrix, nil
}

// ToTable reshapes an engine matrix for display: the cohort period becomes a
// regular column formatted as YYYY-MM-DD.
func ToTable(m *models.CohortMatrix) models.CohortTable {
	table := models.CohortTable{
		Offsets: append([]int{}, m.Offsets...),
		Rows:    make([]models.CohortRow, 0, len(m.Periods)),
	}
	for i, period := range m.Periods {
		row := models.CohortRow{CohortPeriod: period.Format(periodDateLayout)}
		if i < len(m.Sizes) {
			row.CohortSize = m.Sizes[i]
		}
		row.Values = make([]*float64, len(m.Offsets))
		if i < len(m.Cells) {
			copy(row.Values, m.Cells[i])
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
