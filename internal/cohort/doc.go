// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

/*
Package cohort turns user analysis choices into cohort results.

It has three parts:

  - Option types: Period, Aggregation and the duration presets offered to users.
  - ResolveConfig and NewRequest: normalize a raw (value column, aggregation)
    choice into an AnalysisRequest that can never carry an inconsistent pair.
  - Orchestrator: calls the Engine once for the absolute table and, for
    user-count analysis only, a second time for retention percentages, then
    reshapes both matrices for display.

The engine itself is an interface; the DuckDB implementation lives in the
database package.

# Result Shape

A value analysis (for example the sum of TotalPrice) has no retention table:
Result.Percent is nil. Retention is defined only for user-count analysis.

# Errors

  - ErrCannotGenerate: date or customer column missing; a soft failure the
    caller shows as "analysis cannot be generated".
  - ErrConfigurationInconsistency: an AnalysisRequest that bypassed the
    resolver. This is a programming error.
  - *ComputationError: the engine rejected the request. No partial result is
    returned.
*/
package cohort
