// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

// Command cohortctl runs cohort analyses from the terminal.
package main

import "github.com/tomtom215/cohortscope/internal/cli"

func main() {
	cli.Execute()
}
