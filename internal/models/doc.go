// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

/*
Package models defines the data structures shared across Cohortscope.

Key Components:

  - Optional: explicit present/absent wrapper used for column and aggregation choices
  - Dataset: a cleaned, materialized dataset held by the dataset cache
  - CohortMatrix: pivot output of the cohort engine (cohort period x period offset)
  - CohortTable: display form of a matrix with cohort_period as a plain date string
  - APIResponse: standardized HTTP response envelope

Models carry JSON tags and no behavior beyond small accessors; the logic that
produces them lives in the cache, dataset, database and cohort packages.
*/
package models
