// internal/app/system/metrics/metrics.go

// Package metrics computes the KPI summary over a set of tidy habit records.
package metrics

import (
	"sort"
	"time"

	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/montanaflynn/stats"
)

// Summarize computes the MetricsSummary for records. It never fails: an empty
// slice yields models.EmptySummary().
//
// Records with a nil score count toward TotalRecords and TotalDays only.
func Summarize(records []models.TidyRecord) models.MetricsSummary {
	if len(records) == 0 {
		return models.EmptySummary()
	}

	sum := models.EmptySummary()
	sum.TotalRecords = len(records)

	var scores stats.Float64Data
	days := map[int64]struct{}{}
	perDay := map[int64]stats.Float64Data{}
	perMonth := map[string]stats.Float64Data{}

	for _, r := range records {
		key := DayKey(r.Date)
		days[key] = struct{}{}
		if r.Score == nil {
			continue
		}
		s := *r.Score
		switch s {
		case 1.0:
			sum.SuccessCount++
		case 0.0:
			sum.FailureCount++
		}
		scores = append(scores, s)
		perDay[key] = append(perDay[key], s)
		perMonth[r.MonthName] = append(perMonth[r.MonthName], s)
	}

	sum.TotalDays = len(days)
	sum.SuccessRate = Mean(scores)

	for _, dayScores := range perDay {
		if Mean(dayScores) == 1.0 {
			sum.PerfectDays++
		}
	}

	first := true
	for _, month := range MonthOrder(perMonth) {
		rate := Mean(perMonth[month])
		if first || rate > sum.BestMonthRate {
			sum.BestMonth, sum.BestMonthRate = month, rate
		}
		if first || rate < sum.WorstMonthRate {
			sum.WorstMonth, sum.WorstMonthRate = month, rate
		}
		first = false
	}

	return sum
}

// Mean returns the arithmetic mean of data, or 0 when data is empty.
func Mean(data stats.Float64Data) float64 {
	if len(data) == 0 {
		return 0
	}
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}

// DayKey identifies a calendar day independent of location and clock.
func DayKey(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// MonthOrder returns the keys of groups in calendar order, January first.
// Names that are not English month names sort alphabetically after December.
func MonthOrder[V any](groups map[string]V) []string {
	out := make([]string, 0, len(groups))
	for m := time.January; m <= time.December; m++ {
		if _, ok := groups[m.String()]; ok {
			out = append(out, m.String())
		}
	}
	var extra []string
	for name := range groups {
		if !isMonthName(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func isMonthName(name string) bool {
	for m := time.January; m <= time.December; m++ {
		if m.String() == name {
			return true
		}
	}
	return false
}
