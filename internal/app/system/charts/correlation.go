// internal/app/system/charts/correlation.go
package charts

import (
	"math"

	"github.com/dalemusser/stratahabits/internal/app/system/metrics"
	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/montanaflynn/stats"
)

// CorrelationMatrix holds pairwise Pearson coefficients between habits.
// Values[i][j] is nil when fewer than two dates have a hit/miss for both
// habits or when either side is constant over those dates.
type CorrelationMatrix struct {
	Habits []string     `json:"habits"`
	Values [][]*float64 `json:"values"`
}

// Correlation pivots records into a date × habit table where "1" is 1, "0"
// is 0 and every other status is missing, then correlates each habit pair over
// the dates both have a value for. It returns nil when fewer than two habits
// are in view.
func Correlation(records []models.TidyRecord) *CorrelationMatrix {
	table := map[string]map[int64]float64{}
	for _, r := range records {
		col, ok := table[r.Habit]
		if !ok {
			col = map[int64]float64{}
			table[r.Habit] = col
		}
		k := metrics.DayKey(r.Date)
		switch r.Status {
		case models.StatusHit:
			col[k] = 1
		case models.StatusMiss:
			col[k] = 0
		default:
			delete(col, k)
		}
	}
	if len(table) < 2 {
		return nil
	}

	habits := sortedKeys(table)
	values := make([][]*float64, len(habits))
	for i := range values {
		values[i] = make([]*float64, len(habits))
	}
	for i := range habits {
		for j := i; j < len(habits); j++ {
			c := pairwise(table[habits[i]], table[habits[j]])
			values[i][j] = c
			values[j][i] = c
		}
	}
	return &CorrelationMatrix{Habits: habits, Values: values}
}

func pairwise(a, b map[int64]float64) *float64 {
	var xs, ys stats.Float64Data
	for k, x := range a {
		if y, ok := b[k]; ok {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return nil
	}
	c, err := stats.Pearson(xs, ys)
	if err != nil || math.IsNaN(c) || math.IsInf(c, 0) {
		return nil
	}
	return &c
}

func constant(data stats.Float64Data) bool {
	for _, v := range data[1:] {
		if v != data[0] {
			return false
		}
	}
	return true
}
