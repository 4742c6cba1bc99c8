// cmd/habitctl/etl.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dalemusser/stratahabits/internal/app/system/export"
	"github.com/dalemusser/stratahabits/internal/app/system/metrics"
	"github.com/dalemusser/stratahabits/internal/app/system/sheets"
	"github.com/dalemusser/stratahabits/internal/app/system/tidy"
	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	headRows int
	csvOut   string
)

// etlCmd runs fetch and transform once and prints a data-quality check.
var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Fetch and transform the worksheets, then print a data-quality check",
	Long: `Fetches every configured month sheet, reshapes it into tidy records and
prints the first records, the record count, the column names and the global
success rate. Use --csv to keep the result.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		out := cmd.OutOrStdout()
		printQualityCheck(out, res, headRows)

		if csvOut != "" {
			if err := writeCSVFile(csvOut, res.Records); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nWrote %d records to %s\n", len(res.Records), csvOut)
		}
		return nil
	},
}

// etlResult is one fetch and transform pass.
type etlResult struct {
	sheets.FetchResult
	tidy.Result
}

func runETL(ctx context.Context, cfg *Config, src sheets.Source, log *zap.Logger) (etlResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log.Debug("fetching worksheets", zap.Strings("months", cfg.Months))
	fetched, err := sheets.NewFetcher(src, cfg.Months, log).Fetch(ctx)
	if err != nil {
		return etlResult{}, fmt.Errorf("fetch: %w", err)
	}
	if len(fetched.Tables) == 0 {
		return etlResult{}, fmt.Errorf("fetch: none of the sheets %s could be read", strings.Join(cfg.Months, ", "))
	}
	log.Debug("fetched worksheets",
		zap.Int("tables", len(fetched.Tables)),
		zap.Strings("missing", fetched.Missing),
		zap.Strings("invalid", fetched.Invalid),
	)

	result := tidy.New(tidy.Options{DefaultYear: cfg.Year}).TransformWithReport(fetched.Tables)
	log.Debug("transformed records", zap.Int("records", len(result.Records)))
	return etlResult{FetchResult: fetched, Result: result}, nil
}

func printQualityCheck(w io.Writer, res etlResult, head int) {
	rawRows := 0
	rawCols := 0
	for _, t := range res.Tables {
		rawRows += len(t.Rows)
		rawCols = max(rawCols, len(t.Columns)+2) // type and habit
	}

	fmt.Fprintln(w, titleStyle.Render("Raw data"))
	fmt.Fprint(w, renderPairs([][2]string{
		{"Sheets", strconv.Itoa(len(res.Tables))},
		{"Shape", fmt.Sprintf("(%d, %d)", rawRows, rawCols)},
	}))
	if len(res.Missing) > 0 {
		fmt.Fprintln(w, warnStyle.Render("Missing sheets: "+strings.Join(res.Missing, ", ")))
	}
	if len(res.Invalid) > 0 {
		fmt.Fprintln(w, warnStyle.Render("Sheets without type/habit columns: "+strings.Join(res.Invalid, ", ")))
	}

	fmt.Fprintln(w, titleStyle.Render("Data quality check"))
	n := min(max(head, 0), len(res.Records))
	rows := [][]string{export.Header}
	for _, r := range res.Records[:n] {
		rows = append(rows, recordRow(r))
	}
	fmt.Fprintln(w, renderTable(rows))
	fmt.Fprintln(w)

	rep := res.Report
	fmt.Fprint(w, renderPairs([][2]string{
		{"Final shape", fmt.Sprintf("(%d, %d)", len(res.Records), len(export.Header))},
		{"Columns", strings.Join(export.Header, ", ")},
		{"Blank cells dropped", strconv.Itoa(rep.BlankCells)},
		{"Unparseable dates", strconv.Itoa(rep.UnparseableDates)},
		{"Global success rate", percent(metrics.Summarize(res.Records).SuccessRate)},
	}))
	if len(rep.UnparseableLabels) > 0 {
		fmt.Fprintln(w, warnStyle.Render("Unparseable day labels: "+strings.Join(rep.UnparseableLabels, ", ")))
	}
}

func recordRow(r models.TidyRecord) []string {
	score := ""
	if r.Score != nil {
		score = strconv.FormatFloat(*r.Score, 'f', -1, 64)
	}
	return []string{
		r.Date.Format(export.DateLayout),
		r.Type,
		r.Habit,
		r.Status,
		score,
		r.MonthName,
		r.DayOfWeek,
	}
}

func writeCSVFile(path string, records []models.TidyRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, records); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func percent(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}
