// internal/app/system/charts/points.go
package charts

import (
	"slices"
	"time"

	"github.com/dalemusser/stratahabits/internal/app/system/metrics"
	"github.com/dalemusser/stratahabits/internal/app/system/scoreweights"
	"github.com/dalemusser/stratahabits/internal/domain/models"
)

// HeatCell is one date of the yearly heatmap.
type HeatCell struct {
	Date      time.Time `json:"date"`
	NetPoints float64   `json:"net_points"`
	ISOWeek   int       `json:"iso_week"`
	Weekday   int       `json:"weekday"` // 0 = Monday
	DayName   string    `json:"day_name"`
}

// CalendarCell is one date of the month-grid calendar.
type CalendarCell struct {
	Date        time.Time `json:"date"`
	NetPoints   float64   `json:"net_points"`
	MonthName   string    `json:"month_name"`
	Weekday     int       `json:"weekday"` // 0 = Monday
	DayNumber   int       `json:"day_number"`
	WeekOfMonth int       `json:"week_of_month"`
}

// Calendar is the wall calendar plus the color range derived from the score
// weights and the number of habits in view.
type Calendar struct {
	Cells   []CalendarCell       `json:"cells"`
	Range   scoreweights.Range   `json:"range"`
	Weights scoreweights.Weights `json:"weights"`
}

type dayPoints struct {
	date   time.Time
	points float64
}

// netPoints sums status weights per date, ascending by date.
func netPoints(records []models.TidyRecord, w scoreweights.Weights) []dayPoints {
	byDay := map[int64]*dayPoints{}
	for _, r := range records {
		k := metrics.DayKey(r.Date)
		dp, ok := byDay[k]
		if !ok {
			dp = &dayPoints{date: r.Date}
			byDay[k] = dp
		}
		dp.points += w.Points(r.Status)
	}

	out := make([]dayPoints, 0, len(byDay))
	for _, dp := range byDay {
		out = append(out, *dp)
	}
	slices.SortFunc(out, func(a, b dayPoints) int { return a.date.Compare(b.date) })
	return out
}

// Heatmap returns per-date net points placed on an ISO week × weekday grid.
func Heatmap(records []models.TidyRecord, w scoreweights.Weights) []HeatCell {
	days := netPoints(records, w)
	out := make([]HeatCell, len(days))
	for i, d := range days {
		_, week := d.date.ISOWeek()
		wd := MondayIndex(d.date)
		out[i] = HeatCell{
			Date:      d.date,
			NetPoints: d.points,
			ISOWeek:   week,
			Weekday:   wd,
			DayName:   weekdayAbbrev[wd],
		}
	}
	return out
}

// WallCalendar returns per-date net points laid out as month grids. The
// display range spans the worst and best possible day for the habits in view.
func WallCalendar(records []models.TidyRecord, w scoreweights.Weights) Calendar {
	habits := map[string]struct{}{}
	for _, r := range records {
		habits[r.Habit] = struct{}{}
	}

	days := netPoints(records, w)
	cells := make([]CalendarCell, len(days))
	for i, d := range days {
		cells[i] = CalendarCell{
			Date:        d.date,
			NetPoints:   d.points,
			MonthName:   d.date.Month().String(),
			Weekday:     MondayIndex(d.date),
			DayNumber:   d.date.Day(),
			WeekOfMonth: WeekOfMonth(d.date),
		}
	}
	return Calendar{Cells: cells, Range: w.DisplayRange(len(habits)), Weights: w}
}

// WeekOfMonth is the 1-based row of t in a Monday-first month grid.
func WeekOfMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return (t.Day()+MondayIndex(first)-1)/7 + 1
}
