// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratahabits/internal/app/resources"
	"github.com/dalemusser/stratahabits/internal/app/system/pipeline"
	"github.com/dalemusser/stratahabits/internal/app/system/tasks"
	"github.com/dalemusser/stratahabits/internal/app/system/timeouts"
	"github.com/dalemusser/stratahabits/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It loads the shared templates, performs the first spreadsheet load and
// starts the background jobs. A failed first load does not abort startup:
// the dashboard shows the error and the scheduled refresh keeps retrying.
//
// The context will be cancelled if the process is asked to shut down while
// Startup is running; honor it in any long-running work.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()
	viewdata.SetSiteName(appCfg.SiteName)

	timeouts.Configure(timeouts.Config{Refresh: appCfg.RefreshTimeout})

	refreshCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Refresh(), logger, "startup refresh")
	ds := deps.Pipeline.Refresh(refreshCtx, pipeline.TriggerStartup)
	cancel()
	if ds.Err != nil {
		logger.Warn("initial habit load failed; dashboard will show an error until a refresh succeeds",
			zap.String("run_id", ds.RunID),
			zap.Error(ds.Err))
	} else {
		logger.Info("initial habit load complete",
			zap.String("run_id", ds.RunID),
			zap.Int("records", len(ds.Records)),
			zap.Float64("success_rate", ds.Summary.SuccessRate))
	}

	startTaskRunner(appCfg, deps, logger)

	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	taskRunner.Register(tasks.DatasetRefreshJob(deps.Pipeline, appCfg.RefreshInterval, logger))
	taskRunner.Register(tasks.SyncRunCleanupJob(deps.SyncRuns, appCfg.SyncRunRetention, logger))

	taskRunner.Start()
}
