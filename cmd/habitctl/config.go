// cmd/habitctl/config.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dalemusser/stratahabits/internal/app/system/scoreweights"
	"github.com/dalemusser/stratahabits/internal/app/system/sheets"
	"gopkg.in/yaml.v3"
)

const (
	sourceGoogle = "google"
	sourceCSV    = "csv"
)

// Config is the habitctl configuration file.
type Config struct {
	Source          string               `yaml:"source"`
	CSVDir          string               `yaml:"csv_dir"`
	SpreadsheetID   string               `yaml:"spreadsheet_id"`
	CredentialsFile string               `yaml:"credentials_file"`
	Months          []string             `yaml:"months"`
	Year            int                  `yaml:"year"`
	Weights         scoreweights.Weights `yaml:"weights"`
}

// DefaultConfig reads ./data as CSV exports with the default month sheets.
func DefaultConfig() *Config {
	return &Config{
		Source:  sourceCSV,
		CSVDir:  "data",
		Months:  append([]string(nil), sheets.DefaultMonths...),
		Weights: scoreweights.Default(),
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path or a
// missing file yields the defaults. Environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("STRATAHABITS_SHEETS_SPREADSHEET_ID"); v != "" {
		c.SpreadsheetID = v
	}
	if v := os.Getenv("STRATAHABITS_SHEETS_CREDENTIALS_FILE"); v != "" {
		c.CredentialsFile = v
	}
	if v := os.Getenv("STRATAHABITS_SHEETS_CSV_DIR"); v != "" {
		c.CSVDir = v
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var problems []error
	switch strings.ToLower(c.Source) {
	case sourceGoogle:
		if c.SpreadsheetID == "" {
			problems = append(problems, errors.New("spreadsheet_id is required for the google source"))
		}
		if c.CredentialsFile == "" {
			problems = append(problems, errors.New("credentials_file is required for the google source"))
		}
	case sourceCSV:
		if c.CSVDir == "" {
			problems = append(problems, errors.New("csv_dir is required for the csv source"))
		}
	default:
		problems = append(problems, fmt.Errorf("source must be %q or %q, got %q", sourceGoogle, sourceCSV, c.Source))
	}
	if len(c.Months) == 0 {
		problems = append(problems, errors.New("months must not be empty"))
	}
	if c.Year < 0 {
		problems = append(problems, fmt.Errorf("year must not be negative, got %d", c.Year))
	}
	if err := c.Weights.Validate(); err != nil {
		problems = append(problems, err)
	}
	return errors.Join(problems...)
}

// OpenSource opens the configured spreadsheet source.
func (c *Config) OpenSource(ctx context.Context) (sheets.Source, error) {
	if strings.EqualFold(c.Source, sourceGoogle) {
		return sheets.NewGoogleSource(ctx, c.CredentialsFile, c.SpreadsheetID)
	}
	return sheets.NewCSVSource(c.CSVDir)
}
