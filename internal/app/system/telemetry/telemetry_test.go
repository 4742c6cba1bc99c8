package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRefresh(t *testing.T) {
	m := New()

	m.ObserveRefresh(RefreshOutcome{
		Success:          true,
		Duration:         time.Second,
		Records:          42,
		BlankCells:       3,
		UnparseableDates: 2,
		SheetsMissing:    1,
		SuccessRate:      0.75,
	})
	m.ObserveRefresh(RefreshOutcome{Success: false, Duration: time.Second})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues("failed")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.records), "failure keeps the last dataset gauges")
	assert.Equal(t, 0.75, testutil.ToFloat64(m.successRate))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.droppedCells.WithLabelValues("blank")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.droppedCells.WithLabelValues("unparseable_date")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sheetsSkipped.WithLabelValues("missing")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRefresh(RefreshOutcome{Success: true})
	m.CacheHit()
	m.CacheMiss()
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/habits/charts/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/habits/charts/trend", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/habits/charts/{name}", "418")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "stratahabits_http_requests_total"))
}
