// internal/app/features/habitsapi/handler.go

// Package habitsapi serves the habit dataset, its KPI summary and the chart
// series as JSON.
//
// Endpoints (mounted at /api/habits):
//   - GET  /records           filtered tidy records
//   - GET  /metrics           KPI summary of the filtered subset
//   - GET  /charts/{name}     chart series of the filtered subset
//   - GET  /options           selectable categories, habits and date bounds
//   - GET  /export.csv        filtered tidy records as CSV
//   - GET  /runs              recent refresh runs
//   - POST /refresh           reload the spreadsheet now
//
// Every read endpoint accepts start and end (YYYY-MM-DD, inclusive) and
// repeated type and habit parameters.
package habitsapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/stratahabits/internal/app/features/errors"
	syncrunstore "github.com/dalemusser/stratahabits/internal/app/store/syncruns"
	"github.com/dalemusser/stratahabits/internal/app/system/charts"
	"github.com/dalemusser/stratahabits/internal/app/system/export"
	"github.com/dalemusser/stratahabits/internal/app/system/habitfilter"
	"github.com/dalemusser/stratahabits/internal/app/system/jsonutil"
	"github.com/dalemusser/stratahabits/internal/app/system/metrics"
	"github.com/dalemusser/stratahabits/internal/app/system/network"
	"github.com/dalemusser/stratahabits/internal/app/system/pipeline"
	"github.com/dalemusser/stratahabits/internal/app/system/scoreweights"
	"github.com/dalemusser/stratahabits/internal/app/system/timeouts"
	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
	maxWindow        = 90
)

// Datasets is the part of the pipeline the API reads from.
type Datasets interface {
	Current(ctx context.Context) pipeline.Dataset
	Refresh(ctx context.Context, trigger string) pipeline.Dataset
}

// RunLister lists recorded refresh runs.
type RunLister interface {
	ListRecent(ctx context.Context, limit int64) ([]syncrunstore.Run, error)
}

// Handler serves the habit API.
type Handler struct {
	data    Datasets
	runs    RunLister
	weights scoreweights.Weights
	errLog  *errorsfeature.ErrorLogger
	logger  *zap.Logger
}

// NewHandler creates a habit API handler. runs may be nil, in which case
// GET /runs answers 503.
func NewHandler(data Datasets, runs RunLister, weights scoreweights.Weights, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		data:    data,
		runs:    runs,
		weights: weights,
		errLog:  errLog,
		logger:  logger,
	}
}

// subset is a request's filtered view of the current dataset.
type subset struct {
	ds      pipeline.Dataset
	filter  habitfilter.Filter
	records []models.TidyRecord
}

// load parses the filter and resolves the current dataset. It writes the
// error response itself and returns false when the request cannot proceed.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (subset, bool) {
	f, err := habitfilter.Parse(r.URL.Query())
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return subset{}, false
	}

	ds := h.data.Current(r.Context())
	if ds.Unavailable() {
		h.errLog.LogDataset(r, "habit dataset unavailable", ds.Err, ds.RunID, false)
		jsonutil.Unavailable(w, "habit data is unavailable: "+ds.Err.Error())
		return subset{}, false
	}
	if ds.Stale {
		w.Header().Set("Warning", `110 - "serving stale habit data"`)
	}

	return subset{ds: ds, filter: f, records: f.Apply(ds.Records)}, true
}

// Records handles GET /records.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	records := s.records
	if records == nil {
		records = []models.TidyRecord{}
	}
	jsonutil.OK(w, RecordsResponse{
		Dataset: datasetInfo(s.ds),
		Filter:  echo(s.filter),
		Count:   len(records),
		Records: records,
	})
}

// Metrics handles GET /metrics. An empty subset yields the zeroed summary
// with Empty set.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonutil.OK(w, MetricsResponse{
		Dataset: datasetInfo(s.ds),
		Filter:  echo(s.filter),
		Empty:   len(s.records) == 0,
		Summary: metrics.Summarize(s.records),
	})
}

// Chart names served by GET /charts/{name}.
const (
	ChartTrend        = "trend"
	ChartTrendByType  = "trend-by-type"
	ChartTrendByHabit = "trend-by-habit"
	ChartCategories   = "categories"
	ChartWeekdays     = "weekdays"
	ChartHeatmap      = "heatmap"
	ChartCalendar     = "calendar"
	ChartCorrelation  = "correlation"
)

// ChartNames lists every chart in display order.
var ChartNames = []string{
	ChartTrend,
	ChartTrendByType,
	ChartTrendByHabit,
	ChartCategories,
	ChartWeekdays,
	ChartHeatmap,
	ChartCalendar,
	ChartCorrelation,
}

// Chart handles GET /charts/{name}. Trend charts accept a window parameter
// (1..90 tracked days, default 7).
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	window, err := parseWindow(r.URL.Query().Get("window"))
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	build, ok := h.chartBuilder(name, window)
	if !ok {
		jsonutil.NotFound(w, fmt.Sprintf("unknown chart %q", name))
		return
	}

	s, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonutil.OK(w, ChartResponse{
		Dataset: datasetInfo(s.ds),
		Filter:  echo(s.filter),
		Chart:   name,
		Records: len(s.records),
		Data:    build(s.records),
	})
}

func (h *Handler) chartBuilder(name string, window int) (func([]models.TidyRecord) any, bool) {
	switch name {
	case ChartTrend:
		return func(rs []models.TidyRecord) any { return charts.DailyTrend(rs, window) }, true
	case ChartTrendByType:
		return func(rs []models.TidyRecord) any { return charts.GroupTrend(rs, charts.ByType, window) }, true
	case ChartTrendByHabit:
		return func(rs []models.TidyRecord) any { return charts.GroupTrend(rs, charts.ByHabit, window) }, true
	case ChartCategories:
		return func(rs []models.TidyRecord) any { return charts.CategoryBreakdown(rs) }, true
	case ChartWeekdays:
		return func(rs []models.TidyRecord) any { return charts.DayOfWeek(rs) }, true
	case ChartHeatmap:
		return func(rs []models.TidyRecord) any { return charts.Heatmap(rs, h.weights) }, true
	case ChartCalendar:
		return func(rs []models.TidyRecord) any { return charts.WallCalendar(rs, h.weights) }, true
	case ChartCorrelation:
		return func(rs []models.TidyRecord) any {
			// A nil *CorrelationMatrix inside any would not encode as null.
			if m := charts.Correlation(rs); m != nil {
				return m
			}
			return nil
		}, true
	}
	return nil, false
}

func parseWindow(raw string) (int, error) {
	if raw == "" {
		return charts.DefaultWindow, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxWindow {
		return 0, fmt.Errorf("window must be an integer between 1 and %d", maxWindow)
	}
	return n, nil
}

// Options handles GET /options. Options always describe the full dataset,
// not the filtered subset.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	ds := h.data.Current(r.Context())
	if ds.Unavailable() {
		h.errLog.LogDataset(r, "habit dataset unavailable", ds.Err, ds.RunID, false)
		jsonutil.Unavailable(w, "habit data is unavailable: "+ds.Err.Error())
		return
	}
	jsonutil.OK(w, OptionsResponse{
		Dataset: datasetInfo(ds),
		Options: habitfilter.OptionsFor(ds.Records),
		Charts:  ChartNames,
	})
}

// ExportCSV handles GET /export.csv with the filtered records.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	s, ok := h.load(w, r)
	if !ok {
		return
	}

	export.SetDownloadHeaders(w)
	if err := export.WriteCSV(w, s.records); err != nil {
		h.errLog.Log(r, "failed to write habit CSV export", err)
	}
}

// Runs handles GET /runs?limit=N.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		jsonutil.Unavailable(w, "run history is not configured")
		return
	}

	limit := int64(defaultRunsLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			jsonutil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	runs, err := h.runs.ListRecent(ctx, limit)
	if err != nil {
		h.errLog.Log(r, "failed to list sync runs", err)
		jsonutil.InternalError(w, "failed to list runs")
		return
	}
	jsonutil.OK(w, RunsResponse{Runs: runs})
}

// Refresh handles POST /refresh. It reloads the spreadsheet synchronously and
// answers 503 when the reload failed and nothing is left to serve.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Refresh(), h.logger, "api refresh")
	defer cancel()

	h.logger.Info("habit refresh requested", zap.String("client_ip", network.ClientIP(r)))
	ds := h.data.Refresh(ctx, pipeline.TriggerAPI)
	if ds.Unavailable() {
		h.errLog.LogDataset(r, "habit refresh failed", ds.Err, ds.RunID, false)
		jsonutil.Unavailable(w, "refresh failed: "+ds.Err.Error())
		return
	}
	if ds.Err != nil {
		h.logger.Warn("habit refresh failed; serving previous data",
			zap.String("run_id", ds.RunID), zap.Error(ds.Err))
	}

	jsonutil.OK(w, RefreshResponse{
		Dataset: datasetInfo(ds),
		Records: len(ds.Records),
		Missing: nonNil(ds.Missing),
		Invalid: nonNil(ds.Invalid),
		Report:  ds.Report,
		Summary: ds.Summary,
	})
}

func datasetInfo(ds pipeline.Dataset) DatasetInfo {
	info := DatasetInfo{
		RunID:     ds.RunID,
		FetchedAt: ds.FetchedAt,
		Stale:     ds.Stale,
	}
	if ds.Err != nil {
		info.Error = ds.Err.Error()
	}
	return info
}

func echo(f habitfilter.Filter) FilterEcho {
	e := FilterEcho{Types: f.Types, Habits: f.Habits}
	if f.Start != nil {
		e.Start = f.Start.Format(habitfilter.DateLayout)
	}
	if f.End != nil {
		e.End = f.End.Format(habitfilter.DateLayout)
	}
	return e
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ Datasets = (*pipeline.Pipeline)(nil)
