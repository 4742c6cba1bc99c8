// internal/app/system/scoreweights/scoreweights.go

// Package scoreweights maps status tokens to the "net points" used by the
// calendar and heatmap views. It is independent of the 1/0/nil score the
// core pipeline assigns.
package scoreweights

import (
	"fmt"
	"math"

	"github.com/dalemusser/stratahabits/internal/domain/models"
)

// Default weights: a hit earns a point, a miss costs one, rest is neutral.
const (
	DefaultHit  = 1.0
	DefaultMiss = -1.0
	DefaultRest = 0.0
)

// Weights is the per-token weighting.
type Weights struct {
	Hit  float64 `yaml:"hit" json:"hit"`
	Miss float64 `yaml:"miss" json:"miss"`
	Rest float64 `yaml:"rest" json:"rest"`
}

// Default returns the default weights.
func Default() Weights {
	return Weights{Hit: DefaultHit, Miss: DefaultMiss, Rest: DefaultRest}
}

// Validate rejects non-finite weights and a hit weight that is not above the
// miss weight (the display range would be empty or inverted).
func (w Weights) Validate() error {
	for name, v := range map[string]float64{"hit": w.Hit, "miss": w.Miss, "rest": w.Rest} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("score weight %s must be a finite number", name)
		}
	}
	if w.Hit <= w.Miss {
		return fmt.Errorf("score weight hit (%v) must be greater than miss (%v)", w.Hit, w.Miss)
	}
	return nil
}

// Map returns the token-to-weight table.
func (w Weights) Map() map[string]float64 {
	return map[string]float64{
		models.StatusHit:  w.Hit,
		models.StatusMiss: w.Miss,
		models.StatusRest: w.Rest,
	}
}

// Points returns the weight for a status token; unknown tokens weigh 0.
func (w Weights) Points(status string) float64 {
	switch status {
	case models.StatusHit:
		return w.Hit
	case models.StatusMiss:
		return w.Miss
	case models.StatusRest:
		return w.Rest
	}
	return 0
}

// Range is the numeric display range for a day's net points.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DisplayRange is [habits*Miss, habits*Hit] for the given number of tracked
// habits.
func (w Weights) DisplayRange(habits int) Range {
	n := float64(habits)
	return Range{Min: n * w.Miss, Max: n * w.Hit}
}
