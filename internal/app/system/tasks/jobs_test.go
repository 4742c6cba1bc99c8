package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/stratahabits/internal/app/system/pipeline"
	"github.com/dalemusser/stratahabits/internal/app/system/tasks"
	"go.uber.org/zap"
)

type stubRefresher struct {
	triggers []string
	err      error
}

func (s *stubRefresher) Refresh(ctx context.Context, trigger string) pipeline.Dataset {
	s.triggers = append(s.triggers, trigger)
	return pipeline.Dataset{RunID: "r1", Err: s.err}
}

type stubPruner struct {
	cutoff time.Time
}

func (s *stubPruner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return 3, nil
}

func TestDatasetRefreshJob(t *testing.T) {
	r := &stubRefresher{}
	job := tasks.DatasetRefreshJob(r, 30*time.Minute, zap.NewNop())

	if job.Name != tasks.DatasetRefreshJobName || job.Interval != 30*time.Minute || !job.SkipInitial {
		t.Errorf("unexpected job definition: %+v", job)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(r.triggers) != 1 || r.triggers[0] != pipeline.TriggerSchedule {
		t.Errorf("triggers = %v", r.triggers)
	}

	r.err = errors.New("source down")
	if err := job.Run(context.Background()); err == nil {
		t.Error("expected refresh failure to surface as job error")
	}
}

func TestSyncRunCleanupJob(t *testing.T) {
	p := &stubPruner{}
	job := tasks.SyncRunCleanupJob(p, 48*time.Hour, zap.NewNop())

	before := time.Now().UTC().Add(-48 * time.Hour)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	after := time.Now().UTC().Add(-48 * time.Hour)

	if p.cutoff.Before(before) || p.cutoff.After(after) {
		t.Errorf("cutoff %v not within [%v, %v]", p.cutoff, before, after)
	}
}
