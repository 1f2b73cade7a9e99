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

	"github.com/tomtom215/cohortscope/internal/cohort"
	"github.com/tomtom215/cohortscope/internal/models"
	"github.com/tomtom215/cohortscope/internal/schema"
)

var (
	genDate     string
	genCustomer string
	genValue    string
	genAgg      string
	genPeriod   string
	genDuration int
	genFormat   string
)

var generateCmd = &cobra.Command{
	Use:   "generate <dataset>",
	Short: "Compute a cohort analysis",
	Long: `Load a dataset and compute a cohort analysis.

Without --value the cells count active customers and a retention table is
printed as well. With --value the cells aggregate that column (sum unless
--agg says otherwise) and no retention table is produced.

Date and customer columns default to the auto-detected ones.

Examples:
  cohortctl generate ecommerce-1
  cohortctl generate ecommerce-1 --period W --duration 2
  cohortctl generate ecommerce-2 --value Sales --agg mean --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genDate, "date", "", "Date column (default: auto-detected)")
	generateCmd.Flags().StringVar(&genCustomer, "customer", "", "Customer column (default: auto-detected)")
	generateCmd.Flags().StringVarP(&genValue, "value", "v", "", "Value column to aggregate (default: count customers)")
	generateCmd.Flags().StringVarP(&genAgg, "agg", "a", "", "Aggregation: sum, mean, count, median, nunique")
	generateCmd.Flags().StringVarP(&genPeriod, "period", "p", string(cohort.DefaultPeriod), "Cohort period: D, W, M, Q or Y")
	generateCmd.Flags().IntVarP(&genDuration, "duration", "d", cohort.DefaultPeriodDuration, "Period length in days")
	generateCmd.Flags().StringVarP(&genFormat, "format", "f", formatTable, "Output format: table or json")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := checkFormat(genFormat); err != nil {
		return err
	}
	opts, err := buildOptions(genDate, genCustomer, genValue, genAgg, genPeriod, genDuration)
	if err != nil {
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

	sess, err := app.Sessions.Create()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := app.Sessions.LoadDataset(ctx, sess.ID, src.Name); err != nil {
		return err
	}
	res, err := app.Sessions.Generate(ctx, sess.ID, opts)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), res, genFormat)
}

// buildOptions converts command-line flags into analysis options. Empty
// column flags are left unset.
func buildOptions(date, customer, value, agg, period string, duration int) (cohort.Options, error) {
	p, err := cohort.ParsePeriod(period)
	if err != nil {
		return cohort.Options{}, err
	}
	if duration <= 0 {
		return cohort.Options{}, fmt.Errorf("invalid --duration %d: must be positive", duration)
	}

	opts := cohort.Options{
		DateColumn:     schema.ParseChoice(date),
		CustomerColumn: schema.ParseChoice(customer),
		ValueColumn:    schema.ParseChoice(value),
		Period:         p,
		PeriodDuration: duration,
	}
	agg = strings.TrimSpace(agg)
	if agg != "" && !strings.EqualFold(agg, schema.NoSelectionLabel) {
		parsed, err := cohort.ParseAggregation(agg)
		if err != nil {
			return cohort.Options{}, err
		}
		opts.Aggregation = models.Some(parsed)
	}
	return opts, nil
}

func writeResult(w io.Writer, res *cohort.Result, format string) error {
	if format == formatJSON {
		return writeJSON(w, res)
	}

	req := res.Request
	fmt.Fprintf(w, "%s: %s, %s periods of %d days\n\n",
		res.Dataset, req.Title(), req.Period.DisplayName(), req.PeriodDuration)

	cells := cellCount
	if req.IsValueAnalysis() {
		cells = cellValue
	}
	if err := writeCohortTable(w, req.MetricLabel(), res.Absolute, cells); err != nil {
		return err
	}
	if res.Percent == nil {
		return nil
	}
	fmt.Fprintln(w)
	return writeCohortTable(w, "Retention (%)", *res.Percent, cellPercent)
}
