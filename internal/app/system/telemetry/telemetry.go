// internal/app/system/telemetry/telemetry.go

// Package telemetry exposes Prometheus metrics for dataset refreshes and the
// habit API.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stratahabits"

// RefreshOutcome is what a single dataset refresh reports.
type RefreshOutcome struct {
	Success          bool
	Duration         time.Duration
	Records          int
	BlankCells       int
	UnparseableDates int
	SheetsMissing    int
	SheetsInvalid    int
	SuccessRate      float64
}

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	droppedCells    *prometheus.CounterVec
	records         prometheus.Gauge
	successRate     prometheus.Gauge
	sheetsSkipped   *prometheus.GaugeVec
	lastSuccess     prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Dataset refreshes by outcome.",
		}, []string{"status"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent fetching and transforming the spreadsheet.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		droppedCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_cells_total",
			Help:      "Cells dropped during the tidy transform by reason.",
		}, []string{"reason"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Tidy records in the current dataset.",
		}),
		successRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "success_rate",
			Help:      "Global success rate of the current dataset.",
		}),
		sheetsSkipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sheets_skipped",
			Help:      "Configured month sheets skipped in the last refresh.",
		}, []string{"reason"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful refresh.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Dataset cache lookups by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.refreshTotal,
		m.refreshDuration,
		m.droppedCells,
		m.records,
		m.successRate,
		m.sheetsSkipped,
		m.lastSuccess,
		m.cacheLookups,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRefresh records the outcome of one refresh. The dataset gauges only
// move on success so a failed refresh does not zero them.
func (m *Metrics) ObserveRefresh(o RefreshOutcome) {
	if m == nil {
		return
	}
	m.refreshDuration.Observe(o.Duration.Seconds())
	if !o.Success {
		m.refreshTotal.WithLabelValues("failed").Inc()
		return
	}
	m.refreshTotal.WithLabelValues("success").Inc()
	m.droppedCells.WithLabelValues("blank").Add(float64(o.BlankCells))
	m.droppedCells.WithLabelValues("unparseable_date").Add(float64(o.UnparseableDates))
	m.records.Set(float64(o.Records))
	m.successRate.Set(o.SuccessRate)
	m.sheetsSkipped.WithLabelValues("missing").Set(float64(o.SheetsMissing))
	m.sheetsSkipped.WithLabelValues("invalid").Set(float64(o.SheetsInvalid))
	m.lastSuccess.SetToCurrentTime()
}

// CacheHit counts a dataset served from cache.
func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheLookups.WithLabelValues("hit").Inc()
	}
}

// CacheMiss counts a lookup that had to refresh.
func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and durations labeled by the matched chi
// route pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
