// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/stratahabits/internal/app/system/pipeline"
	"go.uber.org/zap"
)

// Job names.
const (
	DatasetRefreshJobName = "dataset-refresh"
	SyncRunCleanupJobName = "sync-run-cleanup"
)

// Refresher recomputes the habit dataset.
type Refresher interface {
	Refresh(ctx context.Context, trigger string) pipeline.Dataset
}

// RunPruner deletes old sync run records.
type RunPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DatasetRefreshJob re-reads the spreadsheet every interval so the cached
// dataset never goes stale for long. The startup refresh happens elsewhere,
// so the first run waits one interval. A failed fetch is returned as the job
// error; the pipeline keeps serving the previous data.
func DatasetRefreshJob(r Refresher, interval time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:        DatasetRefreshJobName,
		Interval:    interval,
		Timeout:     5 * time.Minute,
		SkipInitial: true,
		Run: func(ctx context.Context) error {
			ds := r.Refresh(ctx, pipeline.TriggerSchedule)
			if ds.Err != nil {
				return ds.Err
			}
			logger.Debug("scheduled refresh complete",
				zap.String("run_id", ds.RunID),
				zap.Int("records", len(ds.Records)))
			return nil
		},
	}
}

// SyncRunCleanupJob removes sync run history older than retention.
func SyncRunCleanupJob(p RunPruner, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     SyncRunCleanupJobName,
		Interval: 24 * time.Hour,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-retention)
			deleted, err := p.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("cleaned up old sync runs",
					zap.Int64("deleted", deleted),
					zap.Time("cutoff", cutoff))
			}
			return nil
		},
	}
}
