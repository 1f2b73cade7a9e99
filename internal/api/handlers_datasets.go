// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cohortscope/internal/database"
	"github.com/tomtom215/cohortscope/internal/dataset"
	"github.com/tomtom215/cohortscope/internal/models"
	"github.com/tomtom215/cohortscope/internal/schema"
)

// DatasetColumns is the body of GET /datasets/{slug}/columns. Columns and
// ValueColumns start with the "no selection" choice, encoded as null.
type DatasetColumns struct {
	Dataset      string                    `json:"dataset"`
	Generation   uint64                    `json:"generation"`
	Columns      []models.Optional[string] `json:"columns"`
	ValueColumns []models.Optional[string] `json:"value_columns"`
	Detected     schema.Columns            `json:"detected"`
}

// ListDatasets returns the catalog with each dataset's cache state. It never
// triggers a load.
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	sources := h.catalog.Sources()
	infos := make([]models.DatasetInfo, 0, len(sources))
	for _, src := range sources {
		infos = append(infos, models.DatasetInfo{
			Name:         src.Name,
			Slug:         src.Slug,
			Description:  src.Description,
			ValueColumns: schema.ValueColumns(src.Name),
			Cache:        h.datasets.Info(src.Name),
		})
	}
	respondOK(w, http.StatusOK, infos, started)
}

// sourceFromPath resolves {slug}. It writes a 404 and returns false when unknown.
func (h *Handler) sourceFromPath(w http.ResponseWriter, r *http.Request) (dataset.Source, bool) {
	slug := chi.URLParam(r, "slug")
	src, ok := h.catalog.BySlug(slug)
	if !ok {
		respondError(w, r, http.StatusNotFound, CodeDatasetUnavailable, "Unknown dataset", nil)
		return dataset.Source{}, false
	}
	return src, true
}

// loadFromPath resolves {slug} and fetches the dataset through the shared cache.
func (h *Handler) loadFromPath(w http.ResponseWriter, r *http.Request) (*models.Dataset, bool, bool) {
	src, ok := h.sourceFromPath(w, r)
	if !ok {
		return nil, false, false
	}
	ds, cached, err := h.datasets.GetDataset(r.Context(), src.Name)
	if err != nil {
		respondDomainError(w, r, err)
		return nil, false, false
	}
	return ds, cached, true
}

// DatasetColumns returns the column choices for a dataset.
func (h *Handler) DatasetColumns(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	src, ok := h.sourceFromPath(w, r)
	if !ok {
		return
	}

	ds, cached, err := h.datasets.GetDataset(r.Context(), src.Name)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	columns, err := h.datasets.GetColumns(r.Context(), src.Name)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := models.SuccessResponse(DatasetColumns{
		Dataset:      ds.Name,
		Generation:   ds.Generation,
		Columns:      columns,
		ValueColumns: schema.WithNoSelection(schema.AllowedValueColumns(ds.Name, ds.Columns)),
		Detected:     schema.AutoDetect(ds.Name, ds.Columns),
	}, started)
	resp.Metadata.Cached = cached
	respondJSON(w, http.StatusOK, resp)
}

// DatasetOverview returns transaction, column and customer counts.
func (h *Handler) DatasetOverview(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ds, cached, ok := h.loadFromPath(w, r)
	if !ok {
		return
	}

	detected := schema.AutoDetect(ds.Name, ds.Columns)
	overview, err := h.explorer.Overview(r.Context(), ds, detected.Customer)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := models.SuccessResponse(overview, started)
	resp.Metadata.Cached = cached
	respondJSON(w, http.StatusOK, resp)
}

// DatasetPreview returns the first rows of a dataset. ?rows is clamped to 5..500.
func (h *Handler) DatasetPreview(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ds, cached, ok := h.loadFromPath(w, r)
	if !ok {
		return
	}

	rows := database.ClampPreviewRows(getIntParam(r, "rows", database.DefaultPreviewRows))
	preview, err := h.explorer.Preview(r.Context(), ds, rows)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := models.SuccessResponse(preview, started)
	resp.Metadata.Cached = cached
	respondJSON(w, http.StatusOK, resp)
}
