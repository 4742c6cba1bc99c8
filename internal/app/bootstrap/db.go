// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	syncrunstore "github.com/dalemusser/stratahabits/internal/app/store/syncruns"
	"github.com/dalemusser/stratahabits/internal/app/system/events"
	"github.com/dalemusser/stratahabits/internal/app/system/indexes"
	"github.com/dalemusser/stratahabits/internal/app/system/pipeline"
	"github.com/dalemusser/stratahabits/internal/app/system/sheets"
	"github.com/dalemusser/stratahabits/internal/app/system/telemetry"
	"github.com/dalemusser/stratahabits/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB, opens the spreadsheet source and the Kafka
// publisher, and assembles the refresh pipeline on top of them.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema and
// Startup. Nothing is fetched from the spreadsheet here; the first load
// happens in Startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	// Configure MongoDB connection pool
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	src, err := openSource(ctx, appCfg)
	if err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, err
	}
	logger.Info("opened spreadsheet source",
		zap.String("source", appCfg.SheetsSource),
		zap.Strings("months", appCfg.SheetsMonths),
	)

	runs := syncrunstore.New(db)
	metrics := telemetry.New()
	pub := events.New(events.Config{Brokers: appCfg.KafkaBrokers, Topic: appCfg.KafkaTopic}, logger)

	pipe := pipeline.New(
		pipeline.Config{
			SourceName:  appCfg.SheetsSource,
			DefaultYear: appCfg.HabitYear,
			CacheTTL:    appCfg.CacheTTL,
		},
		sheets.NewFetcher(src, appCfg.SheetsMonths, logger),
		runs,
		metrics,
		pub,
		logger,
	)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		SyncRuns:      runs,
		Source:        src,
		Publisher:     pub,
		Metrics:       metrics,
		Pipeline:      pipe,
	}, nil
}

// openSource builds the configured spreadsheet source.
func openSource(ctx context.Context, appCfg AppConfig) (sheets.Source, error) {
	switch appCfg.SheetsSource {
	case SourceGoogle:
		src, err := sheets.NewGoogleSource(ctx, appCfg.SheetsCredentialsFile, appCfg.SheetsSpreadsheetID)
		if err != nil {
			return nil, fmt.Errorf("open google sheets source: %w", err)
		}
		return src, nil
	case SourceCSV:
		src, err := sheets.NewCSVSource(appCfg.SheetsCSVDir)
		if err != nil {
			return nil, fmt.Errorf("open csv source: %w", err)
		}
		return src, nil
	}
	return nil, fmt.Errorf("unknown sheets source %q", appCfg.SheetsSource)
}

// EnsureSchema creates the sync_runs collection with its validator and
// indexes.
//
// The context has a timeout based on coreCfg.IndexBootTimeout, so long-running
// migrations should respect context cancellation.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Collections and validators first so indexes land on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db, logger); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db, logger); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
