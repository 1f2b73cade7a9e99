// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

/*
Package api serves the cohortscope HTTP/JSON interface on a chi router.

Endpoints (all under /api/v1):

	GET    /health, /health/live, /health/ready
	GET    /datasets                          catalog with cache info
	GET    /datasets/{slug}/columns           columns, detected roles, value columns
	GET    /datasets/{slug}/overview          transactions, columns, unique customers
	GET    /datasets/{slug}/preview?rows=N    raw rows, N clamped to 5..500
	POST   /sessions                          create an analysis session
	GET    /sessions/{id}                     session snapshot
	DELETE /sessions/{id}
	POST   /sessions/{id}/dataset             {"dataset": "E-commerce Data 1"}
	POST   /sessions/{id}/generate            analysis options
	POST   /sessions/{id}/reset
	GET    /sessions/{id}/result              tables and heatmap descriptors
	GET    /performance                       per-route latency percentiles

/metrics is served at the root with promhttp.

Every response uses the models.APIResponse envelope. Domain errors are mapped
to codes in errors.go; clients should switch on error.code, not on the message.

Reading a session's result generates a default analysis first when the session
has a dataset but no result. Reset drops the result so the next read does the
same again.
*/
package api
