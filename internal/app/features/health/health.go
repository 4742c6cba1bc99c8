// internal/app/features/health/health.go
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	syncrunstore "github.com/dalemusser/stratahabits/internal/app/store/syncruns"
	"github.com/dalemusser/stratahabits/internal/app/system/pipeline"
	"github.com/dalemusser/stratahabits/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Snapshotter exposes the cached dataset without triggering a refresh.
type Snapshotter interface {
	Snapshot() (pipeline.Dataset, bool)
}

// RunHistory looks up recorded refresh runs. Satisfied by *syncrunstore.Store.
type RunHistory interface {
	Latest(ctx context.Context, status string) (syncrunstore.Run, error)
}

// Dataset states reported by Check.
const (
	DatasetOK      = "ok"
	DatasetStale   = "stale"
	DatasetEmpty   = "not loaded"
	DatasetFailing = "unavailable"
)

// Handler provides health check endpoints.
type Handler struct {
	mongo    Pinger
	datasets Snapshotter
	runs     RunHistory
	logger   *zap.Logger
}

// NewHandler creates a new health check Handler. datasets and runs may be nil.
func NewHandler(mongo Pinger, datasets Snapshotter, runs RunHistory, logger *zap.Logger) *Handler {
	return &Handler{
		mongo:    mongo,
		datasets: datasets,
		runs:     runs,
		logger:   logger,
	}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
	Records  int               `json:"records"`
	Fetched  *time.Time        `json:"fetched_at,omitempty"`

	// LastSuccess is when the most recent successful refresh finished, as
	// recorded in the run history. It survives restarts, unlike Fetched.
	LastSuccess *time.Time `json:"last_success_at,omitempty"`
}

// Routes returns a chi.Router with health check routes mounted.
// Provides /health (full check), /health/ready, and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds /ready, /readyz and /livez directly on the root
// router for Kubernetes health checks.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// Check reports MongoDB connectivity and the state of the habit dataset.
// A failing spreadsheet source degrades the status but a stale dataset does
// not, since the dashboard can still serve it.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Status:   "ok",
		Services: make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.mongo.Ping(ctx, readpref.Primary()); err != nil {
		resp.Status = "degraded"
		resp.Services["mongodb"] = "unavailable"
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
	} else {
		resp.Services["mongodb"] = "ok"
	}

	if h.datasets != nil {
		ds, ok := h.datasets.Snapshot()
		switch {
		case !ok:
			resp.Services["dataset"] = DatasetEmpty
		case ds.Unavailable():
			resp.Status = "degraded"
			resp.Services["dataset"] = DatasetFailing
		case ds.Stale:
			resp.Services["dataset"] = DatasetStale
		default:
			resp.Services["dataset"] = DatasetOK
		}
		if ok {
			resp.Records = len(ds.Records)
			if !ds.FetchedAt.IsZero() {
				fetched := ds.FetchedAt
				resp.Fetched = &fetched
			}
		}
	}

	if h.runs != nil {
		run, err := h.runs.Latest(ctx, syncrunstore.StatusSuccess)
		switch {
		case err == nil:
			finished := run.FinishedAt
			resp.LastSuccess = &finished
		case !errors.Is(err, syncrunstore.ErrNotFound):
			h.logger.Warn("health check: run history lookup failed", zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}

// Ready checks if the service is ready to accept requests.
// Used by Kubernetes readiness checks.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := h.mongo.Ping(ctx, readpref.Primary()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}

	w.Write([]byte(`{"status":"ready"}`))
}

// Live checks if the service is alive.
// Used by Kubernetes liveness checks.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"alive"}`))
}
