// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cohort

import (
	"fmt"
	"strings"
)

// ColorScales are the heatmap palettes offered to users.
var ColorScales = []string{
	"Turbo", "Viridis", "Plasma", "Blues", "Reds", "Greens",
	"Oranges", "Purples", "Greys", "YlOrRd", "YlGnBu", "RdYlBu",
	"Spectral", "Coolwarm", "RdBu", "Cividis",
}

// Default palettes for the absolute and retention heatmaps.
const (
	DefaultColorScale          = "Turbo"
	DefaultRetentionColorScale = "Blues"
	RetentionTitle             = "User Retention Rate (%)"
	RetentionMetricLabel       = "Retention Percentages"
)

// HeatmapSpec describes a chart for a renderer. The renderer itself is external.
type HeatmapSpec struct {
	Title       string `json:"title"`
	MetricLabel string `json:"metric_label"`
	ColorScale  string `json:"color_scale"`
	ShowLegend  bool   `json:"show_legend"`
}

// HeatmapStyle is a user's palette choice.
type HeatmapStyle struct {
	ColorScale string
	Reverse    bool
	ShowLegend bool
}

// ResolveColorScale validates a palette name case-insensitively and appends
// "_r" when reversed. An empty name yields fallback.
func ResolveColorScale(name, fallback string, reverse bool) (string, error) {
	if name == "" {
		name = fallback
	}
	for _, known := range ColorScales {
		if strings.EqualFold(known, name) {
			if reverse {
				return known + "_r", nil
			}
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown color scale %q", name)
}

// Heatmaps returns chart descriptors for a request. The retention chart is nil
// for value analysis.
func Heatmaps(req AnalysisRequest, main, retention HeatmapStyle) (HeatmapSpec, *HeatmapSpec, error) {
	mainScale, err := ResolveColorScale(main.ColorScale, DefaultColorScale, main.Reverse)
	if err != nil {
		return HeatmapSpec{}, nil, err
	}
	absolute := HeatmapSpec{
		Title:       req.Title(),
		MetricLabel: req.MetricLabel(),
		ColorScale:  mainScale,
		ShowLegend:  main.ShowLegend,
	}
	if !req.ComputeRetention {
		return absolute, nil, nil
	}
	retScale, err := ResolveColorScale(retention.ColorScale, DefaultRetentionColorScale, retention.Reverse)
	if err != nil {
		return HeatmapSpec{}, nil, err
	}
	return absolute, &HeatmapSpec{
		Title:       RetentionTitle,
		MetricLabel: RetentionMetricLabel,
		ColorScale:  retScale,
		ShowLegend:  retention.ShowLegend,
	}, nil
}
