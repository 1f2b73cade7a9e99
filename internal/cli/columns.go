// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cohortscope/internal/models"
	"github.com/tomtom215/cohortscope/internal/schema"
)

var columnsFormat string

var columnsCmd = &cobra.Command{
	Use:   "columns <dataset>",
	Short: "Load a dataset and show its columns",
	Long: `Load a dataset and print its columns with the auto-detected date, customer
and default value columns. The dataset may be given by name or slug.

Examples:
  cohortctl columns ecommerce-1
  cohortctl columns "E-commerce Data 2" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runColumns,
}

func init() {
	columnsCmd.Flags().StringVarP(&columnsFormat, "format", "f", formatTable, "Output format: table or json")
}

// columnReport describes a loaded dataset's columns.
type columnReport struct {
	Dataset      string         `json:"dataset"`
	Rows         int64          `json:"rows"`
	Columns      []string       `json:"columns"`
	ValueColumns []string       `json:"value_columns"`
	Detected     schema.Columns `json:"detected"`
}

func runColumns(cmd *cobra.Command, args []string) error {
	if err := checkFormat(columnsFormat); err != nil {
		return err
	}
	app, err := NewAppContext()
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	src, err := resolveSource(app.Loader.Sources(), args[0])
	if err != nil {
		return err
	}
	ds, _, err := app.Datasets.GetDataset(cmd.Context(), src.Name)
	if err != nil {
		return err
	}
	return writeColumns(cmd.OutOrStdout(), newColumnReport(ds), columnsFormat)
}

func newColumnReport(ds *models.Dataset) columnReport {
	return columnReport{
		Dataset:      ds.Name,
		Rows:         ds.RowCount,
		Columns:      ds.Columns,
		ValueColumns: schema.AllowedValueColumns(ds.Name, ds.Columns),
		Detected:     schema.AutoDetect(ds.Name, ds.Columns),
	}
}

func writeColumns(w io.Writer, r columnReport, format string) error {
	if format == formatJSON {
		return writeJSON(w, r)
	}

	fmt.Fprintf(w, "%s (%d rows)\n\n", r.Dataset, r.Rows)
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "COLUMN\tROLE")
	for _, c := range r.Columns {
		fmt.Fprintf(tw, "%s\t%s\n", c, columnRole(r, c))
	}
	return tw.Flush()
}

func columnRole(r columnReport, column string) string {
	is := func(o models.Optional[string]) bool {
		v, ok := o.Get()
		return ok && v == column
	}
	switch {
	case is(r.Detected.Date):
		return "date"
	case is(r.Detected.Customer):
		return "customer"
	case is(r.Detected.Value):
		return "value (default)"
	}
	for _, v := range r.ValueColumns {
		if v == column {
			return "value"
		}
	}
	return ""
}
