// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

// Package dataset knows the catalog of bundled transaction datasets and how to
// turn each raw CSV source into a cleaned DuckDB table.
//
// The Loader implements cache.DatasetLoader. Every successful load produces a
// new immutable table generation named ds_<slug>_g<n>; the previous generation
// is kept so sessions still holding it can finish their work, and older
// generations are dropped. A per-dataset circuit breaker stops hammering a
// source that keeps failing.
//
// Cleaning rules:
//
//   - E-commerce Data 1 is read as Latin-1. InvoiceDate is parsed with
//     %m/%d/%Y %H:%M into InvoiceDateTime, InvoiceDate becomes the date part,
//     TotalPrice = Quantity * UnitPrice. Rows without CustomerID are dropped,
//     then exact duplicates.
//   - E-commerce Data 2 joins Order_Date and Time into OrderedDateTime
//     (%Y-%m-%d %H:%M:%S). Rows without OrderedDateTime or Customer_Id are
//     dropped, then exact duplicates.
package dataset
