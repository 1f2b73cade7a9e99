// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package database

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// tableNamePattern restricts managed tables to lower snake case.
var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ValidTableName reports whether name can be used as a managed table name.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

func checkTableName(name string) error {
	if !ValidTableName(name) {
		return fmt.Errorf("%w: table %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// QuoteIdent quotes a column or table name for DuckDB.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral renders s as a DuckDB string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// CSVSource describes a CSV file read through DuckDB's read_csv.
type CSVSource struct {
	Path string

	// Encoding is passed to read_csv when set, e.g. "latin-1".
	Encoding string

	// Varchar lists columns that must be read as text instead of sniffed.
	Varchar []string
}

// Expr returns the read_csv table function call for the source.
func (s CSVSource) Expr() string {
	var b strings.Builder
	b.WriteString("read_csv(")
	b.WriteString(QuoteLiteral(s.Path))
	b.WriteString(", header = true")
	if s.Encoding != "" {
		b.WriteString(", encoding = ")
		b.WriteString(QuoteLiteral(s.Encoding))
	}
	if len(s.Varchar) > 0 {
		cols := append([]string(nil), s.Varchar...)
		sort.Strings(cols)
		types := make([]string, len(cols))
		for i, c := range cols {
			types[i] = QuoteLiteral(c) + ": 'VARCHAR'"
		}
		b.WriteString(", types = {")
		b.WriteString(strings.Join(types, ", "))
		b.WriteString("}")
	}
	b.WriteString(")")
	return b.String()
}
