// internal/app/system/charts/charts.go

// Package charts derives the data series behind the dashboard charts from a
// subset of tidy records. Rendering is left to the client; every function here
// returns plain JSON-ready values.
package charts

import (
	"fmt"
	"slices"
	"time"

	"github.com/dalemusser/stratahabits/internal/app/system/metrics"
	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/montanaflynn/stats"
)

// DefaultWindow is the trailing window, in tracked days, of the rolling mean.
const DefaultWindow = 7

// Dimension selects the grouping column of a GroupTrend.
type Dimension string

const (
	ByType  Dimension = "type"
	ByHabit Dimension = "habit"
)

// ParseDimension accepts "type" or "habit".
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(s) {
	case ByType, ByHabit:
		return Dimension(s), nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

func (d Dimension) key(r models.TidyRecord) string {
	if d == ByHabit {
		return r.Habit
	}
	return r.Type
}

// TrendPoint is one tracked date of a trend line. Mean is nil when the date has
// no scored record; Rolling is nil when its whole window is.
type TrendPoint struct {
	Date    time.Time `json:"date"`
	Mean    *float64  `json:"mean"`
	Rolling *float64  `json:"rolling"`
}

// Trend is a daily success line with its rolling mean.
type Trend struct {
	Points  []TrendPoint `json:"points"`
	Average float64      `json:"average"`
}

// Series is a named trend line.
type Series struct {
	Name   string       `json:"name"`
	Points []TrendPoint `json:"points"`
}

// DailyTrend returns the per-date mean score, its trailing rolling mean over
// window dates and the overall average score.
func DailyTrend(records []models.TidyRecord, window int) Trend {
	var all stats.Float64Data
	for _, r := range records {
		if r.Score != nil {
			all = append(all, *r.Score)
		}
	}
	return Trend{
		Points:  trendPoints(records, window),
		Average: metrics.Mean(all),
	}
}

// GroupTrend returns one trend line per distinct value of dim, sorted by name.
func GroupTrend(records []models.TidyRecord, dim Dimension, window int) []Series {
	groups := map[string][]models.TidyRecord{}
	for _, r := range records {
		k := dim.key(r)
		groups[k] = append(groups[k], r)
	}

	out := make([]Series, 0, len(groups))
	for _, name := range sortedKeys(groups) {
		out = append(out, Series{Name: name, Points: trendPoints(groups[name], window)})
	}
	return out
}

func trendPoints(records []models.TidyRecord, window int) []TrendPoint {
	if window < 1 {
		window = 1
	}

	byDay := map[int64]stats.Float64Data{}
	dates := map[int64]time.Time{}
	for _, r := range records {
		k := metrics.DayKey(r.Date)
		dates[k] = r.Date
		if r.Score != nil {
			byDay[k] = append(byDay[k], *r.Score)
		} else if _, ok := byDay[k]; !ok {
			byDay[k] = nil
		}
	}

	keys := make([]int64, 0, len(dates))
	for k := range dates {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	points := make([]TrendPoint, len(keys))
	for i, k := range keys {
		points[i] = TrendPoint{Date: dates[k]}
		if len(byDay[k]) > 0 {
			m := metrics.Mean(byDay[k])
			points[i].Mean = &m
		}
	}

	for i := range points {
		var win stats.Float64Data
		for j := max(0, i-window+1); j <= i; j++ {
			if points[j].Mean != nil {
				win = append(win, *points[j].Mean)
			}
		}
		if len(win) > 0 {
			m := metrics.Mean(win)
			points[i].Rolling = &m
		}
	}
	return points
}

// CategoryStat is the success rate of one habit type.
type CategoryStat struct {
	Type  string  `json:"type"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// CategoryBreakdown returns the mean score and scored-record count per type,
// ascending by mean. Types without any scored record are left out.
func CategoryBreakdown(records []models.TidyRecord) []CategoryStat {
	scores := map[string]stats.Float64Data{}
	for _, r := range records {
		if r.Score != nil {
			scores[r.Type] = append(scores[r.Type], *r.Score)
		}
	}

	out := make([]CategoryStat, 0, len(scores))
	for _, t := range sortedKeys(scores) {
		out = append(out, CategoryStat{Type: t, Mean: metrics.Mean(scores[t]), Count: len(scores[t])})
	}
	slices.SortStableFunc(out, func(a, b CategoryStat) int {
		switch {
		case a.Mean < b.Mean:
			return -1
		case a.Mean > b.Mean:
			return 1
		}
		return 0
	})
	return out
}

// WeekdayStat is the mean score of one weekday.
type WeekdayStat struct {
	Day   int      `json:"day"` // 0 = Monday
	Name  string   `json:"name"`
	Mean  *float64 `json:"mean"`
	Count int      `json:"count"`
}

// DayOfWeek returns the mean score per weekday, Monday first. Only weekdays
// present in records are listed.
func DayOfWeek(records []models.TidyRecord) []WeekdayStat {
	var seen [7]bool
	var scores [7]stats.Float64Data
	for _, r := range records {
		d := MondayIndex(r.Date)
		seen[d] = true
		if r.Score != nil {
			scores[d] = append(scores[d], *r.Score)
		}
	}

	var out []WeekdayStat
	for d := range 7 {
		if !seen[d] {
			continue
		}
		ws := WeekdayStat{Day: d, Name: weekdayNames[d], Count: len(scores[d])}
		if len(scores[d]) > 0 {
			m := metrics.Mean(scores[d])
			ws.Mean = &m
		}
		out = append(out, ws)
	}
	return out
}

// MondayIndex maps a date's weekday onto 0 (Monday) .. 6 (Sunday).
func MondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var weekdayAbbrev = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
