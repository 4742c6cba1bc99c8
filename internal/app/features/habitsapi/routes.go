// internal/app/features/habitsapi/routes.go
package habitsapi

import (
	"net/http"

	"github.com/dalemusser/stratahabits/internal/app/system/apicors"
	"github.com/dalemusser/stratahabits/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes returns a router with the habit API endpoints.
//
// Authentication is via API key (Bearer token in Authorization header).
// CORS is permissive (allows any origin) since API key auth is used.
func Routes(h *Handler, apiKey string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())
	r.Use(auth.APIKeyAuth(apiKey, logger))

	r.Get("/records", h.Records)
	r.Get("/metrics", h.Metrics)
	r.Get("/charts/{name}", h.Chart)
	r.Get("/options", h.Options)
	r.Get("/export.csv", h.ExportCSV)
	r.Get("/runs", h.Runs)
	r.Post("/refresh", h.Refresh)

	return r
}
