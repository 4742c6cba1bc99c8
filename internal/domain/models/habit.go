// internal/domain/models/habit.go
package models

import "time"

// Status tokens as they appear in the habit spreadsheet.
const (
	StatusHit  = "1" // habit done
	StatusMiss = "0" // habit missed
	StatusRest = "-" // planned rest day
)

// NotApplicable labels a best/worst month when no month has a scored record.
const NotApplicable = "N/A"

// RawMonthTable is one month worksheet in wide format: one row per habit and
// one column per tracked day.
//
// Columns holds the day labels in header order. Blank and duplicate labels are
// kept as-is; they are resolved (or dropped) when the table is transformed.
type RawMonthTable struct {
	Sheet   string
	Columns []string
	Rows    []RawRow
}

// RawRow is a single habit row. Cells is aligned with RawMonthTable.Columns.
type RawRow struct {
	Type  string
	Habit string
	Cells []string
}

// TidyRecord is one observation: a single habit on a single day.
//
// Score is nil for rest days and unrecognized tokens so they drop out of
// every average.
type TidyRecord struct {
	Date      time.Time `json:"date"`
	Type      string    `json:"type"`
	Habit     string    `json:"habit"`
	Status    string    `json:"status"`
	Score     *float64  `json:"score"`
	MonthName string    `json:"month_name"`
	DayOfWeek string    `json:"day_of_week"`
}

// Scored reports whether the record counts toward rates.
func (r TidyRecord) Scored() bool {
	return r.Score != nil
}

// MetricsSummary is the flat KPI set computed over a record subset.
type MetricsSummary struct {
	SuccessRate    float64 `json:"success_rate"`
	SuccessCount   int     `json:"success_count"`
	FailureCount   int     `json:"failure_count"`
	PerfectDays    int     `json:"perfect_days"`
	BestMonth      string  `json:"best_month"`
	BestMonthRate  float64 `json:"best_month_rate"`
	WorstMonth     string  `json:"worst_month"`
	WorstMonthRate float64 `json:"worst_month_rate"`
	TotalDays      int     `json:"total_days"`
	TotalRecords   int     `json:"total_records"`
}

// EmptySummary is the summary of an empty record set.
func EmptySummary() MetricsSummary {
	return MetricsSummary{
		BestMonth:  NotApplicable,
		WorstMonth: NotApplicable,
	}
}
