// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	syncrunstore "github.com/dalemusser/stratahabits/internal/app/store/syncruns"
	"github.com/dalemusser/stratahabits/internal/app/system/events"
	"github.com/dalemusser/stratahabits/internal/app/system/pipeline"
	"github.com/dalemusser/stratahabits/internal/app/system/sheets"
	"github.com/dalemusser/stratahabits/internal/app/system/telemetry"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. The Shutdown hook
// closes these connections when the application terminates.
type DBDeps struct {
	// MongoDB client and database (refresh run history)
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	SyncRuns      *syncrunstore.Store

	// Spreadsheet the habit data is read from
	Source sheets.Source

	// Refresh event publisher (no-op without Kafka brokers)
	Publisher events.Publisher

	// Prometheus collectors
	Metrics *telemetry.Metrics

	// Pipeline owns the cached habit dataset
	Pipeline *pipeline.Pipeline
}
