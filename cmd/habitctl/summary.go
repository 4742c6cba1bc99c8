// cmd/habitctl/summary.go
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/dalemusser/stratahabits/internal/app/system/charts"
	"github.com/dalemusser/stratahabits/internal/app/system/habitfilter"
	"github.com/dalemusser/stratahabits/internal/app/system/metrics"
	"github.com/dalemusser/stratahabits/internal/app/system/scoreweights"
	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/spf13/cobra"
)

var (
	filterStart  string
	filterEnd    string
	filterTypes  []string
	filterHabits []string
)

// summaryCmd prints the KPI cards and breakdowns for a filtered view.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the KPI summary for a date range, categories or habits",
	Long: `Loads the tidy records, applies the filters and prints the success rate,
perfect days, best and worst month, and the category and weekday breakdowns.

Example:
  habitctl summary --start 2024-01-01 --end 2024-03-31 --type Health`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := buildFilter(filterStart, filterEnd, filterTypes, filterHabits)
		if err != nil {
			return err
		}
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		src, err := cfg.OpenSource(ctx)
		if err != nil {
			return err
		}
		res, err := runETL(ctx, cfg, src, logger)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), filter.Apply(res.Records), cfg.Weights)
		return nil
	},
}

// buildFilter reuses the query-string parser so the CLI and the HTTP API
// accept the same dates and lists.
func buildFilter(start, end string, types, habits []string) (habitfilter.Filter, error) {
	q := url.Values{}
	if start != "" {
		q.Set("start", start)
	}
	if end != "" {
		q.Set("end", end)
	}
	q["type"] = types
	q["habit"] = habits
	return habitfilter.Parse(q)
}

func printSummary(w io.Writer, records []models.TidyRecord, weights scoreweights.Weights) {
	if len(records) == 0 {
		fmt.Fprintln(w, warnStyle.Render("No data for the selected filters."))
		return
	}

	sum := metrics.Summarize(records)
	habits := habitfilter.DistinctHabits(records)
	rng := weights.DisplayRange(habits)

	fmt.Fprintln(w, titleStyle.Render("Summary"))
	fmt.Fprint(w, renderPairs([][2]string{
		{"Success rate", percent(sum.SuccessRate)},
		{"Hits / misses", fmt.Sprintf("%d / %d", sum.SuccessCount, sum.FailureCount)},
		{"Perfect days", fmt.Sprintf("%d of %d", sum.PerfectDays, sum.TotalDays)},
		{"Best month", monthLine(sum.BestMonth, sum.BestMonthRate)},
		{"Worst month", monthLine(sum.WorstMonth, sum.WorstMonthRate)},
		{"Records", strconv.Itoa(sum.TotalRecords)},
		{"Daily points range", fmt.Sprintf("%g .. %g (%d habits)", rng.Min, rng.Max, habits)},
	}))

	cats := charts.CategoryBreakdown(records)
	if len(cats) > 0 {
		fmt.Fprintln(w, titleStyle.Render("By category"))
		rows := [][]string{{"type", "success", "n"}}
		for i := len(cats) - 1; i >= 0; i-- {
			c := cats[i]
			rows = append(rows, []string{c.Type, percent(c.Mean), strconv.Itoa(c.Count)})
		}
		fmt.Fprintln(w, renderTable(rows))
	}

	fmt.Fprintln(w, titleStyle.Render("By weekday"))
	rows := [][]string{{"day", "success", "n"}}
	for _, d := range charts.DayOfWeek(records) {
		rate := "-"
		if d.Mean != nil {
			rate = percent(*d.Mean)
		}
		rows = append(rows, []string{d.Name, rate, strconv.Itoa(d.Count)})
	}
	fmt.Fprintln(w, renderTable(rows))
}

func monthLine(month string, rate float64) string {
	if month == models.NotApplicable {
		return month
	}
	return fmt.Sprintf("%s (%s)", month, percent(rate))
}
