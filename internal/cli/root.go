// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

// Package cli implements cohortctl, the command-line front end for running
// cohort analyses without the HTTP server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cohortctl",
	Short: "Run cohort analyses on the bundled e-commerce datasets",
	Long: `cohortctl loads the configured datasets into an embedded DuckDB engine and
prints cohort tables to the terminal.

Configuration is read the same way as the server: defaults, then config.yaml
(or CONFIG_PATH), then environment variables such as DATA_DIR.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(columnsCmd)
	rootCmd.AddCommand(generateCmd)
}
