// internal/app/system/tidy/tidy.go

// Package tidy reshapes wide month worksheets (habits as rows, days as
// columns) into one record per habit per day.
package tidy

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/stratahabits/internal/domain/models"
)

// Options configures a Transformer.
type Options struct {
	// DefaultYear is used for day labels that carry no year (e.g. "03/01").
	// Zero means the current year at construction time.
	DefaultYear int
}

// Report describes what a transform kept and dropped.
type Report struct {
	Tables            int      `json:"tables"`
	CellsSeen         int      `json:"cells_seen"`
	BlankCells        int      `json:"blank_cells"`
	UnparseableDates  int      `json:"unparseable_dates"`
	UnparseableLabels []string `json:"unparseable_labels,omitempty"`
	Records           int      `json:"records"`
}

// Result is the output of TransformWithReport.
type Result struct {
	Records []models.TidyRecord
	Report  Report
}

// Transformer converts RawMonthTables into TidyRecords. It holds no state
// besides its date parser and is safe for concurrent use.
type Transformer struct {
	dates DateParser
}

// New creates a Transformer.
func New(opts Options) *Transformer {
	year := opts.DefaultYear
	if year == 0 {
		year = time.Now().Year()
	}
	return &Transformer{dates: NewDateParser(year)}
}

// Transform is a convenience wrapper using the current year for year-less
// day labels.
func Transform(tables []models.RawMonthTable) []models.TidyRecord {
	return New(Options{}).Transform(tables)
}

// Transform returns the tidy records for tables, sorted by date, type, habit.
func (t *Transformer) Transform(tables []models.RawMonthTable) []models.TidyRecord {
	return t.TransformWithReport(tables).Records
}

// longRow is an unpivoted cell before its label has been parsed.
type longRow struct {
	typ    string
	habit  string
	label  string
	status string
}

// TransformWithReport is Transform plus counts of the cells it dropped.
func (t *Transformer) TransformWithReport(tables []models.RawMonthTable) Result {
	rep := Report{Tables: len(tables)}

	// Each month is melted on its own so differing day-label formats never
	// collide; the long rows all share one shape and can be concatenated.
	var long []longRow
	for _, table := range tables {
		long = append(long, melt(table, &rep)...)
	}

	records := make([]models.TidyRecord, 0, len(long))
	badLabels := map[string]struct{}{}
	for _, row := range long {
		date, ok := t.dates.Parse(row.label)
		if !ok {
			rep.UnparseableDates++
			badLabels[row.label] = struct{}{}
			continue
		}
		records = append(records, models.TidyRecord{
			Date:      date,
			Type:      row.typ,
			Habit:     row.habit,
			Status:    row.status,
			Score:     ScoreOf(row.status),
			MonthName: date.Month().String(),
			DayOfWeek: date.Weekday().String(),
		})
	}

	slices.SortStableFunc(records, compareRecords)

	if len(badLabels) > 0 {
		rep.UnparseableLabels = make([]string, 0, len(badLabels))
		for l := range badLabels {
			rep.UnparseableLabels = append(rep.UnparseableLabels, l)
		}
		sort.Strings(rep.UnparseableLabels)
	}
	rep.Records = len(records)

	return Result{Records: records, Report: rep}
}

// melt unpivots one table column by column, dropping blank cells.
func melt(table models.RawMonthTable, rep *Report) []longRow {
	if len(table.Rows) == 0 || len(table.Columns) == 0 {
		return nil
	}
	out := make([]longRow, 0, len(table.Rows)*len(table.Columns))
	for col, label := range table.Columns {
		for _, row := range table.Rows {
			rep.CellsSeen++
			var status string
			if col < len(row.Cells) {
				status = strings.TrimSpace(row.Cells[col])
			}
			if status == "" {
				rep.BlankCells++
				continue
			}
			out = append(out, longRow{
				typ:    row.Type,
				habit:  row.Habit,
				label:  label,
				status: status,
			})
		}
	}
	return out
}

// ScoreOf maps a status token to its score: 1 for a hit, 0 for a miss and nil
// for rest days or anything unrecognized.
func ScoreOf(status string) *float64 {
	var v float64
	switch status {
	case models.StatusHit:
		v = 1.0
	case models.StatusMiss:
		v = 0.0
	default:
		return nil
	}
	return &v
}

func compareRecords(a, b models.TidyRecord) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if c := strings.Compare(a.Type, b.Type); c != 0 {
		return c
	}
	return strings.Compare(a.Habit, b.Habit)
}
