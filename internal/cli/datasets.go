// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cohortscope/internal/dataset"
	"github.com/tomtom215/cohortscope/internal/schema"
)

var datasetsFormat string

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the dataset catalog",
	Long: `List the datasets cohortctl can analyze. Nothing is loaded.

Examples:
  cohortctl datasets
  cohortctl datasets --format json`,
	Args: cobra.NoArgs,
	RunE: runDatasets,
}

func init() {
	datasetsCmd.Flags().StringVarP(&datasetsFormat, "format", "f", formatTable, "Output format: table or json")
}

// catalogEntry is the printed form of one catalog dataset.
type catalogEntry struct {
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Path         string   `json:"path"`
	Description  string   `json:"description"`
	ValueColumns []string `json:"value_columns"`
}

func runDatasets(cmd *cobra.Command, args []string) error {
	if err := checkFormat(datasetsFormat); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return writeCatalog(cmd.OutOrStdout(), dataset.Catalog(cfg.Datasets), datasetsFormat)
}

func writeCatalog(w io.Writer, sources []dataset.Source, format string) error {
	entries := make([]catalogEntry, 0, len(sources))
	for _, src := range sources {
		entries = append(entries, catalogEntry{
			Name:         src.Name,
			Slug:         src.Slug,
			Path:         src.Path,
			Description:  src.Description,
			ValueColumns: schema.ValueColumns(src.Name),
		})
	}

	if format == formatJSON {
		return writeJSON(w, entries)
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "SLUG\tNAME\tVALUE COLUMNS\tFILE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Slug, e.Name, strings.Join(e.ValueColumns, ", "), e.Path)
	}
	return tw.Flush()
}
