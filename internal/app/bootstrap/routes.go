// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	dashboardfeature "github.com/dalemusser/stratahabits/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/stratahabits/internal/app/features/errors"
	habitsapifeature "github.com/dalemusser/stratahabits/internal/app/features/habitsapi"
	healthfeature "github.com/dalemusser/stratahabits/internal/app/features/health"
	appresources "github.com/dalemusser/stratahabits/internal/app/resources"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// apiPrefix is where the JSON API is mounted. Requests below it skip CSRF
// because they authenticate with a bearer key instead of cookies.
const apiPrefix = "/api/habits"

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed.
//
// Route groups:
//   - Dashboard (/, /export.csv, /refresh): CSRF + restrictive CORS
//   - API (/api/habits/*): API key auth + no CSRF + permissive CORS
//   - Health checks and metrics (/health, /ready, /readyz, /livez, /metrics)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	// A manual refresh runs under its own, longer deadline.
	r.Use(chimw.Timeout(max(30*time.Second, appCfg.RefreshTimeout+5*time.Second)))

	// Request counts and latencies by route pattern.
	r.Use(deps.Metrics.Middleware)

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// CSRF protection for the dashboard forms. The cookie name is app specific
	// to avoid collisions with other services on the same domain.
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("stratahabits_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			errorsHandler.Forbidden(w, req)
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.CSRFDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.CSRFDomain))
	}
	r.Use(skipCSRF(csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)))

	// ─────────────────────────────────────────────────────────────────────────────
	// Health checks, metrics and static assets
	// ─────────────────────────────────────────────────────────────────────────────

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Pipeline, deps.SyncRuns, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	r.Handle("/metrics", deps.Metrics.Handler())

	r.Handle("/assets/*", appresources.AssetsHandler("/assets"))
	r.Handle("/static/*", fileserver.Handler("/static", "static"))

	// ─────────────────────────────────────────────────────────────────────────────
	// Habit API (API key auth)
	// ─────────────────────────────────────────────────────────────────────────────

	apiHandler := habitsapifeature.NewHandler(deps.Pipeline, deps.SyncRuns, appCfg.ScoreWeights, errLog, logger)
	r.Mount(apiPrefix, habitsapifeature.Routes(apiHandler, appCfg.APIKey, logger))

	// ─────────────────────────────────────────────────────────────────────────────
	// Dashboard
	// ─────────────────────────────────────────────────────────────────────────────

	dashboardHandler := dashboardfeature.NewHandler(deps.Pipeline, errLog, logger)
	r.Mount("/", dashboardfeature.Routes(dashboardHandler))

	r.NotFound(errorsHandler.NotFound)

	return r, nil
}

// skipCSRF applies protect to everything except the bearer-key API.
func skipCSRF(protect func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if isAPIPath(req.URL.Path) {
				next.ServeHTTP(w, req)
				return
			}
			protected.ServeHTTP(w, req)
		})
	}
}

func isAPIPath(path string) bool {
	return path == apiPrefix || strings.HasPrefix(path, apiPrefix+"/")
}
