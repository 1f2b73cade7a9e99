// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cohortscope/internal/models"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON:
		return nil
	default:
		return fmt.Errorf("invalid --format %q: must be %s or %s", format, formatTable, formatJSON)
	}
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cellFormat renders one cohort table cell.
type cellFormat int

const (
	cellCount cellFormat = iota
	cellValue
	cellPercent
)

func formatCell(v *float64, f cellFormat) string {
	if v == nil {
		return "-"
	}
	switch f {
	case cellCount:
		return strconv.FormatFloat(*v, 'f', 0, 64)
	case cellPercent:
		return strconv.FormatFloat(*v, 'f', 1, 64) + "%"
	default:
		return strconv.FormatFloat(*v, 'f', 2, 64)
	}
}

// writeCohortTable prints a cohort table with one row per cohort and one
// column per period offset.
func writeCohortTable(w io.Writer, title string, t models.CohortTable, f cellFormat) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", title); err != nil {
		return err
	}
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, "(no cohorts)")
		return err
	}

	tw := newTabWriter(w)
	header := []string{"COHORT", "SIZE"}
	for _, off := range t.Offsets {
		header = append(header, strconv.Itoa(off))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range t.Rows {
		cells := make([]string, 0, len(row.Values)+2)
		cells = append(cells, row.CohortPeriod, strconv.FormatInt(row.CohortSize, 10))
		for _, v := range row.Values {
			cells = append(cells, formatCell(v, f))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
