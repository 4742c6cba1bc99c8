// internal/app/features/dashboard/dashboard.go

// Package dashboard renders the habit dashboard: a filter form, the KPI cards
// and the category and weekday breakdowns of the selected subset.
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	errorsfeature "github.com/dalemusser/stratahabits/internal/app/features/errors"
	"github.com/dalemusser/stratahabits/internal/app/system/charts"
	"github.com/dalemusser/stratahabits/internal/app/system/export"
	"github.com/dalemusser/stratahabits/internal/app/system/habitfilter"
	"github.com/dalemusser/stratahabits/internal/app/system/metrics"
	"github.com/dalemusser/stratahabits/internal/app/system/network"
	"github.com/dalemusser/stratahabits/internal/app/system/pipeline"
	"github.com/dalemusser/stratahabits/internal/app/system/timeouts"
	"github.com/dalemusser/stratahabits/internal/app/system/viewdata"
	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Datasets is the part of the pipeline the dashboard reads from.
type Datasets interface {
	Current(ctx context.Context) pipeline.Dataset
	Refresh(ctx context.Context, trigger string) pipeline.Dataset
}

// Handler provides dashboard handlers.
type Handler struct {
	data   Datasets
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a new dashboard Handler.
func NewHandler(data Datasets, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		data:   data,
		errLog: errLog,
		logger: logger,
	}
}

// KPI is one summary card.
type KPI struct {
	Label string
	Value string
	Hint  string
}

// BarRow is a table row with a proportional bar.
type BarRow struct {
	Label string
	Rate  string
	Count int
	Width int // percent, 0..100
}

// Choice is a selectable filter value.
type Choice struct {
	Value    string
	Selected bool
}

// DashboardVM is the view model for the dashboard.
type DashboardVM struct {
	viewdata.BaseVM

	// Filter form
	Start  string
	End    string
	Types  []Choice
	Habits []Choice
	Query  string

	ExportURL string

	// Dataset state
	Error       string
	Stale       bool
	FilterError string
	NoData      bool
	FetchedAt   string
	RunID       string
	Missing     []string
	Invalid     []string

	KPIs       []KPI
	Categories []BarRow
	Weekdays   []BarRow
	Records    int
}

// Routes returns a chi.Router with dashboard routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.showDashboard)
	r.Get("/export.csv", h.exportCSV)
	r.Post("/refresh", h.refresh)
	return r
}

// showDashboard renders the dashboard for the filter in the query string.
func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	vm := DashboardVM{BaseVM: viewdata.NewBaseVM(r, "Habit Dashboard")}

	f, err := habitfilter.Parse(r.URL.Query())
	if err != nil {
		vm.FilterError = err.Error()
		f = habitfilter.Filter{}
	}

	ds := h.data.Current(r.Context())
	if ds.Err != nil {
		h.errLog.LogDataset(r, "dashboard rendered without fresh data", ds.Err, ds.RunID, ds.Stale)
		vm.Error = ds.Err.Error()
		vm.Stale = ds.Stale
	}
	if !ds.FetchedAt.IsZero() {
		vm.FetchedAt = ds.FetchedAt.Local().Format("Jan 2, 2006 15:04")
	}
	vm.RunID = ds.RunID
	vm.Missing = ds.Missing
	vm.Invalid = ds.Invalid

	opts := habitfilter.OptionsFor(ds.Records)
	vm.Types = choices(opts.Types, f.Types)
	vm.Habits = choices(opts.Habits, f.Habits)
	if f.Start != nil {
		vm.Start = f.Start.Format(habitfilter.DateLayout)
	}
	if f.End != nil {
		vm.End = f.End.Format(habitfilter.DateLayout)
	}
	vm.Query = f.Query().Encode()
	vm.ExportURL = "/export.csv"
	if vm.Query != "" {
		vm.ExportURL += "?" + vm.Query
	}

	subset := f.Apply(ds.Records)
	vm.Records = len(subset)
	vm.NoData = len(subset) == 0

	vm.KPIs = kpis(metrics.Summarize(subset))
	vm.Categories = categoryRows(charts.CategoryBreakdown(subset))
	vm.Weekdays = weekdayRows(charts.DayOfWeek(subset))

	templates.Render(w, r, "dashboard/habits", vm)
}

// exportCSV downloads the filtered records. It answers 400 for a malformed
// filter and 503 when there is no data at all.
func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	f, err := habitfilter.Parse(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds := h.data.Current(r.Context())
	if ds.Unavailable() {
		h.errLog.LogDataset(r, "export requested without data", ds.Err, ds.RunID, false)
		http.Error(w, "habit data is unavailable", http.StatusServiceUnavailable)
		return
	}
	export.SetDownloadHeaders(w)
	if err := export.WriteCSV(w, f.Apply(ds.Records)); err != nil {
		h.errLog.Log(r, "failed to write habit CSV export", err)
	}
}

// refresh reloads the spreadsheet and returns to the dashboard with the same
// filter.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Refresh(), h.logger, "dashboard refresh")
	defer cancel()

	ds := h.data.Refresh(ctx, pipeline.TriggerManual)
	if ds.Err != nil {
		h.errLog.LogDataset(r, "manual refresh failed", ds.Err, ds.RunID, ds.Stale)
	} else {
		h.logger.Info("manual refresh completed",
			zap.String("run_id", ds.RunID),
			zap.Int("records", len(ds.Records)),
			zap.String("client_ip", network.ClientIP(r)))
	}

	target := "/"
	if err := r.ParseForm(); err == nil {
		if q := r.PostForm.Get("return_query"); q != "" {
			if _, err := url.ParseQuery(q); err == nil {
				target = "/?" + q
			}
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func choices(all, selected []string) []Choice {
	out := make([]Choice, 0, len(all))
	for _, v := range all {
		out = append(out, Choice{Value: v, Selected: slices.Contains(selected, v)})
	}
	return out
}

func kpis(s models.MetricsSummary) []KPI {
	return []KPI{
		{Label: "Success rate", Value: percent(s.SuccessRate), Hint: fmt.Sprintf("%d done / %d missed", s.SuccessCount, s.FailureCount)},
		{Label: "Perfect days", Value: fmt.Sprint(s.PerfectDays), Hint: fmt.Sprintf("of %d tracked days", s.TotalDays)},
		{Label: "Best month", Value: s.BestMonth, Hint: monthHint(s.BestMonth, s.BestMonthRate)},
		{Label: "Worst month", Value: s.WorstMonth, Hint: monthHint(s.WorstMonth, s.WorstMonthRate)},
		{Label: "Records", Value: fmt.Sprint(s.TotalRecords)},
	}
}

func monthHint(month string, rate float64) string {
	if month == models.NotApplicable {
		return ""
	}
	return percent(rate)
}

func categoryRows(stats []charts.CategoryStat) []BarRow {
	rows := make([]BarRow, 0, len(stats))
	for _, c := range stats {
		rows = append(rows, BarRow{Label: c.Type, Rate: percent(c.Mean), Count: c.Count, Width: width(c.Mean)})
	}
	return rows
}

func weekdayRows(stats []charts.WeekdayStat) []BarRow {
	rows := make([]BarRow, 0, len(stats))
	for _, d := range stats {
		row := BarRow{Label: d.Name, Rate: "n/a", Count: d.Count}
		if d.Mean != nil {
			row.Rate = percent(*d.Mean)
			row.Width = width(*d.Mean)
		}
		rows = append(rows, row)
	}
	return rows
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func width(v float64) int {
	return min(max(int(v*100+0.5), 0), 100)
}

