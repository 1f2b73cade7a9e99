// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cohortscope/internal/cohort"
	"github.com/tomtom215/cohortscope/internal/logging"
	"github.com/tomtom215/cohortscope/internal/models"
	"github.com/tomtom215/cohortscope/internal/schema"
)

// LoadDatasetRequest is the body of POST /sessions/{id}/dataset.
type LoadDatasetRequest struct {
	Dataset string `json:"dataset" validate:"required,min=1,max=100"`
}

// GenerateRequest is the body of POST /sessions/{id}/generate. Empty column
// fields and "None" mean no selection; date and customer then fall back to
// the detected columns.
type GenerateRequest struct {
	DateColumn     string `json:"date_column" validate:"omitempty,column_name"`
	CustomerColumn string `json:"customer_column" validate:"omitempty,column_name"`
	ValueColumn    string `json:"value_column" validate:"omitempty,column_name"`
	Aggregation    string `json:"aggregation" validate:"cohort_agg"`
	Period         string `json:"period" validate:"omitempty,cohort_period"`
	PeriodDuration int    `json:"period_duration" validate:"omitempty,min=1,max=3650"`
}

// Options converts the body into orchestrator options. The body must have
// passed validation.
func (g GenerateRequest) Options() cohort.Options {
	period, _ := cohort.ParsePeriod(g.Period)
	opts := cohort.Options{
		DateColumn:     schema.ParseChoice(g.DateColumn),
		CustomerColumn: schema.ParseChoice(g.CustomerColumn),
		ValueColumn:    schema.ParseChoice(g.ValueColumn),
		Period:         period,
		PeriodDuration: g.PeriodDuration,
	}
	agg := strings.TrimSpace(g.Aggregation)
	if agg != "" && !strings.EqualFold(agg, schema.NoSelectionLabel) {
		if parsed, err := cohort.ParseAggregation(agg); err == nil {
			opts.Aggregation = models.Some(parsed)
		}
	}
	return opts
}

// heatmapQuery holds the chart options of GET /sessions/{id}/result.
type heatmapQuery struct {
	ColorScale          string `json:"color_scale" validate:"color_scale"`
	RetentionColorScale string `json:"retention_color_scale" validate:"color_scale"`
}

// Heatmaps pairs the chart descriptors of a result.
type Heatmaps struct {
	Absolute  cohort.HeatmapSpec  `json:"absolute"`
	Retention *cohort.HeatmapSpec `json:"retention"`
}

// ResultView is the body of GET /sessions/{id}/result.
type ResultView struct {
	SessionID string `json:"session_id"`
	*cohort.Result
	Heatmaps Heatmaps `json:"heatmaps"`
}

// sessionContext adds the {id} path parameter to the logging context.
func sessionContext(r *http.Request) (string, *http.Request) {
	id := chi.URLParam(r, "id")
	return id, r.WithContext(logging.ContextWithSessionID(r.Context(), id))
}

// CreateSession registers a new empty session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	s, err := h.sessions.Create()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("session_id", s.ID).Msg("Session created")
	respondOK(w, http.StatusCreated, s.Snapshot(), started)
}

// GetSession returns the session snapshot.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	id, r := sessionContext(r)
	s, err := h.sessions.Get(id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, s.Snapshot(), started)
}

// DeleteSession removes a session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, r := sessionContext(r)
	if err := h.sessions.Delete(id); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadSessionDataset makes a catalog dataset the session's active dataset.
// The dataset is identified by name or slug.
func (h *Handler) LoadSessionDataset(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	id, r := sessionContext(r)

	var req LoadDatasetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := req.Dataset
	if src, ok := h.catalog.BySlug(name); ok {
		name = src.Name
	}

	snap, err := h.sessions.LoadDataset(r.Context(), id, name)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, snap, started)
}

// GenerateCohort runs an analysis on the session's active dataset.
func (h *Handler) GenerateCohort(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	id, r := sessionContext(r)

	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	styles, ok := parseHeatmapStyles(w, r)
	if !ok {
		return
	}

	res, err := h.sessions.Generate(r.Context(), id, req.Options())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	h.respondResult(w, r, id, res, styles, started)
}

// ResetSession drops the stored result.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	id, r := sessionContext(r)
	snap, err := h.sessions.Reset(id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, snap, started)
}

// SessionResult returns the stored result, generating a default one
// when the session has a dataset but no result.
func (h *Handler) SessionResult(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	id, r := sessionContext(r)
	styles, ok := parseHeatmapStyles(w, r)
	if !ok {
		return
	}

	res, err := h.sessions.EnsureResult(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	h.respondResult(w, r, id, res, styles, started)
}

// heatmapStyles are the validated chart options of one request.
type heatmapStyles struct {
	main      cohort.HeatmapStyle
	retention cohort.HeatmapStyle
}

// parseHeatmapStyles reads the chart query parameters. It writes a 400 and
// returns false when a palette is unknown, before any session state changes.
func parseHeatmapStyles(w http.ResponseWriter, r *http.Request) (heatmapStyles, bool) {
	q := heatmapQuery{
		ColorScale:          r.URL.Query().Get("color_scale"),
		RetentionColorScale: r.URL.Query().Get("retention_color_scale"),
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidation(w, apiErr)
		return heatmapStyles{}, false
	}
	return heatmapStyles{
		main: cohort.HeatmapStyle{
			ColorScale: q.ColorScale,
			Reverse:    getBoolParam(r, "reverse", false),
			ShowLegend: getBoolParam(r, "show_legend", true),
		},
		retention: cohort.HeatmapStyle{
			ColorScale: q.RetentionColorScale,
			Reverse:    getBoolParam(r, "retention_reverse", false),
			ShowLegend: getBoolParam(r, "retention_show_legend", false),
		},
	}, true
}

func (h *Handler) respondResult(w http.ResponseWriter, r *http.Request, id string, res *cohort.Result, styles heatmapStyles, started time.Time) {
	absolute, ret, err := cohort.Heatmaps(res.Request, styles.main, styles.retention)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "Failed to build heatmaps", err)
		return
	}

	respondOK(w, http.StatusOK, ResultView{
		SessionID: id,
		Result:    res,
		Heatmaps:  Heatmaps{Absolute: absolute, Retention: ret},
	}, started)
}
