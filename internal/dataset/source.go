// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package dataset

import (
	"github.com/tomtom215/cohortscope/internal/config"
	"github.com/tomtom215/cohortscope/internal/database"
	"github.com/tomtom215/cohortscope/internal/schema"
)

// Source is one catalog dataset.
type Source struct {
	Name        string
	Slug        string
	Description string

	// Path is the CSV file location.
	Path string

	// Encoding and Varchar are passed to read_csv.
	Encoding string
	Varchar  []string

	// Clean wraps the raw read_csv expression into the cleaning query.
	Clean func(raw string) string

	// Required columns must survive cleaning.
	Required []string
}

// CSV returns the read_csv description of the source file.
func (s Source) CSV() database.CSVSource {
	return database.CSVSource{Path: s.Path, Encoding: s.Encoding, Varchar: s.Varchar}
}

// Query returns the full cleaning query.
func (s Source) Query() string {
	return s.Clean(s.CSV().Expr())
}

// Catalog returns the bundled datasets with file paths resolved against cfg.
func Catalog(cfg config.DatasetsConfig) []Source {
	return []Source{
		{
			Name:        schema.Ecommerce1,
			Slug:        "ecommerce-1",
			Description: "Online retail invoices: one row per invoice line with quantity and unit price.",
			Path:        cfg.Path(cfg.Ecommerce1),
			Encoding:    "latin-1",
			Varchar:     []string{"InvoiceNo", "StockCode", "CustomerID", "InvoiceDate"},
			Clean:       cleanEcommerce1,
			Required:    []string{"InvoiceDateTime", "CustomerID", "TotalPrice"},
		},
		{
			Name:        schema.Ecommerce2,
			Slug:        "ecommerce-2",
			Description: "Retail orders with sales and profit per order line.",
			Path:        cfg.Path(cfg.Ecommerce2),
			Varchar:     []string{"Order_Date", "Time"},
			Clean:       cleanEcommerce2,
			Required:    []string{"OrderedDateTime", "Customer_Id"},
		},
	}
}

func cleanEcommerce1(raw string) string {
	return `
		SELECT DISTINCT *
		FROM (
			SELECT * REPLACE (CAST("InvoiceDateTime" AS DATE) AS "InvoiceDate")
			FROM (
				SELECT
					*,
					strptime("InvoiceDate", '%m/%d/%Y %H:%M') AS "InvoiceDateTime",
					"Quantity" * "UnitPrice" AS "TotalPrice"
				FROM ` + raw + `
			)
		)
		WHERE "CustomerID" IS NOT NULL`
}

func cleanEcommerce2(raw string) string {
	return `
		SELECT DISTINCT *
		FROM (
			SELECT
				*,
				strptime("Order_Date" || ' ' || "Time", '%Y-%m-%d %H:%M:%S') AS "OrderedDateTime"
			FROM ` + raw + `
		)
		WHERE "OrderedDateTime" IS NOT NULL AND "Customer_Id" IS NOT NULL`
}
