// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/stratahabits/internal/app/system/events"
	"github.com/dalemusser/stratahabits/internal/app/system/scoreweights"
	"github.com/dalemusser/stratahabits/internal/app/system/sheets"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATAHABITS"

// Spreadsheet source kinds.
const (
	SourceGoogle = "google"
	SourceCSV    = "csv"
)

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, sheets_source, etc.
//   - Environment variables: STRATAHABITS_MONGO_URI, STRATAHABITS_SHEETS_SOURCE, etc.
//   - Command-line flags: --mongo_uri, --sheets_source, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratahabits", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},
	{Name: "csrf_domain", Default: "", Desc: "CSRF cookie domain (blank means current host)"},

	{Name: "api_key", Default: "", Desc: "Bearer key for /api/habits (leave empty to disable API key auth)"},

	// Spreadsheet source
	{Name: "sheets_source", Default: SourceGoogle, Desc: "Spreadsheet source: 'google' or 'csv'"},
	{Name: "sheets_spreadsheet_id", Default: "", Desc: "Google spreadsheet ID holding the monthly habit sheets"},
	{Name: "sheets_credentials_file", Default: "credentials.json", Desc: "Path to the Google service account JSON key"},
	{Name: "sheets_csv_dir", Default: "./data", Desc: "Directory of <sheet>.csv files for the csv source"},
	{Name: "sheets_months", Default: strings.Join(sheets.DefaultMonths, ","), Desc: "Comma separated worksheet titles to read"},
	{Name: "habit_year", Default: 0, Desc: "Year for day labels without one (0 = current year)"},

	// Dataset lifecycle
	{Name: "cache_ttl", Default: "10m", Desc: "How long a loaded dataset is served before reloading on demand"},
	{Name: "refresh_interval", Default: "30m", Desc: "Background spreadsheet reload interval"},
	{Name: "refresh_timeout", Default: "2m", Desc: "Deadline for a single spreadsheet reload"},
	{Name: "sync_run_retention", Default: "2160h", Desc: "How long refresh run records are kept"},

	// Score weights
	{Name: "score_weight_hit", Default: "1", Desc: "Calendar points for a done habit"},
	{Name: "score_weight_miss", Default: "-1", Desc: "Calendar points for a missed habit"},
	{Name: "score_weight_rest", Default: "0", Desc: "Calendar points for a rest day"},

	// Kafka
	{Name: "kafka_brokers", Default: "", Desc: "Comma separated Kafka brokers for refresh events (blank disables)"},
	{Name: "kafka_topic", Default: events.DefaultTopic, Desc: "Kafka topic for refresh events"},

	{Name: "site_name", Default: "Habit Tracker", Desc: "Name shown in the dashboard header"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATAHABITS_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	weights, err := parseWeights(
		appValues.String("score_weight_hit"),
		appValues.String("score_weight_miss"),
		appValues.String("score_weight_rest"),
	)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		CSRFKey:    appValues.String("csrf_key"),
		CSRFDomain: appValues.String("csrf_domain"),
		APIKey:     appValues.String("api_key"),

		SheetsSource:          strings.ToLower(strings.TrimSpace(appValues.String("sheets_source"))),
		SheetsSpreadsheetID:   appValues.String("sheets_spreadsheet_id"),
		SheetsCredentialsFile: appValues.String("sheets_credentials_file"),
		SheetsCSVDir:          appValues.String("sheets_csv_dir"),
		SheetsMonths:          parseList(appValues.String("sheets_months")),
		HabitYear:             appValues.Int("habit_year"),

		CacheTTL:         appValues.Duration("cache_ttl", 10*time.Minute),
		RefreshInterval:  appValues.Duration("refresh_interval", 30*time.Minute),
		RefreshTimeout:   appValues.Duration("refresh_timeout", 2*time.Minute),
		SyncRunRetention: appValues.Duration("sync_run_retention", 90*24*time.Hour),

		ScoreWeights: weights,

		KafkaBrokers: events.ParseBrokers(appValues.String("kafka_brokers")),
		KafkaTopic:   appValues.String("kafka_topic"),

		SiteName: appValues.String("site_name"),
	}

	if len(appCfg.SheetsMonths) == 0 {
		appCfg.SheetsMonths = sheets.DefaultMonths
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if err := validateApp(appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}

	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.APIKey == "" {
		logger.Warn("api_key is empty in production - /api/habits is unauthenticated")
	}
	return nil
}

// validateApp checks the settings that do not need WAFFLE's core config.
func validateApp(appCfg AppConfig) error {
	var problems []error

	switch appCfg.SheetsSource {
	case SourceGoogle:
		if appCfg.SheetsSpreadsheetID == "" {
			problems = append(problems, errors.New("sheets_spreadsheet_id is required for the google source"))
		}
		if _, err := os.Stat(appCfg.SheetsCredentialsFile); err != nil {
			problems = append(problems, fmt.Errorf("sheets_credentials_file: %w", err))
		}
	case SourceCSV:
		if appCfg.SheetsCSVDir == "" {
			problems = append(problems, errors.New("sheets_csv_dir is required for the csv source"))
		}
	default:
		problems = append(problems, fmt.Errorf("sheets_source must be %q or %q, got %q", SourceGoogle, SourceCSV, appCfg.SheetsSource))
	}

	if appCfg.HabitYear < 0 {
		problems = append(problems, fmt.Errorf("habit_year must not be negative, got %d", appCfg.HabitYear))
	}
	if appCfg.RefreshInterval <= 0 {
		problems = append(problems, errors.New("refresh_interval must be positive"))
	}
	if appCfg.RefreshTimeout <= 0 {
		problems = append(problems, errors.New("refresh_timeout must be positive"))
	}
	if appCfg.SyncRunRetention <= 0 {
		problems = append(problems, errors.New("sync_run_retention must be positive"))
	}
	if err := appCfg.ScoreWeights.Validate(); err != nil {
		problems = append(problems, err)
	}

	return errors.Join(problems...)
}

func parseWeights(hit, miss, rest string) (scoreweights.Weights, error) {
	var w scoreweights.Weights
	for _, f := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"score_weight_hit", hit, &w.Hit},
		{"score_weight_miss", miss, &w.Miss},
		{"score_weight_rest", rest, &w.Rest},
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(f.raw), 64)
		if err != nil {
			return scoreweights.Weights{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return w, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
