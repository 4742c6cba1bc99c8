// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/stratahabits/internal/app/system/scoreweights"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// The struct is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration (refresh run history)
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// CSRF protection for the dashboard refresh form
	CSRFKey    string // Secret key for CSRF token signing (32 bytes, must be strong in production)
	CSRFDomain string // Cookie domain (blank means current host)

	// API key authentication for /api/habits.
	// Leave empty to disable API key authentication.
	APIKey string

	// Spreadsheet source
	SheetsSource          string   // "google" or "csv"
	SheetsSpreadsheetID   string   // Google spreadsheet ID (google source)
	SheetsCredentialsFile string   // Service account JSON key file (google source)
	SheetsCSVDir          string   // Directory of <sheet>.csv files (csv source)
	SheetsMonths          []string // Worksheet titles to read, in order
	HabitYear             int      // Year assumed for day labels without one (0 = current year)

	// Dataset lifecycle
	CacheTTL         time.Duration // How long a loaded dataset is served before reloading on demand
	RefreshInterval  time.Duration // Background reload interval
	RefreshTimeout   time.Duration // Deadline for a single reload
	SyncRunRetention time.Duration // How long refresh run records are kept

	// Calendar and heatmap point weights
	ScoreWeights scoreweights.Weights

	// Kafka refresh events (disabled when no brokers are set)
	KafkaBrokers []string
	KafkaTopic   string

	// Dashboard
	SiteName string
}
