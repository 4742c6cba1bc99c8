// internal/app/features/habitsapi/types.go
package habitsapi

import (
	"time"

	syncrunstore "github.com/dalemusser/stratahabits/internal/app/store/syncruns"
	"github.com/dalemusser/stratahabits/internal/app/system/habitfilter"
	"github.com/dalemusser/stratahabits/internal/app/system/tidy"
	"github.com/dalemusser/stratahabits/internal/domain/models"
)

// DatasetInfo describes the dataset a response was computed from.
type DatasetInfo struct {
	RunID     string    `json:"run_id,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	Stale     bool      `json:"stale"`
	Error     string    `json:"error,omitempty"`
}

// FilterEcho repeats the parsed filter so clients can confirm what was applied.
type FilterEcho struct {
	Start  string   `json:"start,omitempty"`
	End    string   `json:"end,omitempty"`
	Types  []string `json:"types,omitempty"`
	Habits []string `json:"habits,omitempty"`
}

// RecordsResponse is returned by GET /records.
type RecordsResponse struct {
	Dataset DatasetInfo         `json:"dataset"`
	Filter  FilterEcho          `json:"filter"`
	Count   int                 `json:"count"`
	Records []models.TidyRecord `json:"records"`
}

// MetricsResponse is returned by GET /metrics.
type MetricsResponse struct {
	Dataset DatasetInfo           `json:"dataset"`
	Filter  FilterEcho            `json:"filter"`
	Empty   bool                  `json:"empty"`
	Summary models.MetricsSummary `json:"summary"`
}

// ChartResponse is returned by GET /charts/{name}. Data is the series for the
// named chart, or null when the subset cannot produce one.
type ChartResponse struct {
	Dataset DatasetInfo `json:"dataset"`
	Filter  FilterEcho  `json:"filter"`
	Chart   string      `json:"chart"`
	Records int         `json:"records"`
	Data    any         `json:"data"`
}

// OptionsResponse is returned by GET /options.
type OptionsResponse struct {
	Dataset DatasetInfo         `json:"dataset"`
	Options habitfilter.Options `json:"options"`
	Charts  []string            `json:"charts"`
}

// RunsResponse is returned by GET /runs.
type RunsResponse struct {
	Runs []syncrunstore.Run `json:"runs"`
}

// RefreshResponse is returned by POST /refresh.
type RefreshResponse struct {
	Dataset DatasetInfo           `json:"dataset"`
	Records int                   `json:"records"`
	Missing []string              `json:"missing_sheets"`
	Invalid []string              `json:"invalid_sheets"`
	Report  tidy.Report           `json:"report"`
	Summary models.MetricsSummary `json:"summary"`
}
