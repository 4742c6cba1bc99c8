// internal/app/system/pipeline/pipeline.go

// Package pipeline runs the fetch → tidy → summarize flow and keeps the
// resulting dataset cached for the HTTP layer and background jobs.
package pipeline

import (
	"context"
	"errors"
	"time"

	syncrunstore "github.com/dalemusser/stratahabits/internal/app/store/syncruns"
	"github.com/dalemusser/stratahabits/internal/app/system/datacache"
	"github.com/dalemusser/stratahabits/internal/app/system/events"
	"github.com/dalemusser/stratahabits/internal/app/system/metrics"
	"github.com/dalemusser/stratahabits/internal/app/system/sheets"
	"github.com/dalemusser/stratahabits/internal/app/system/telemetry"
	"github.com/dalemusser/stratahabits/internal/app/system/tidy"
	"github.com/dalemusser/stratahabits/internal/app/system/timeouts"
	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Refresh triggers, recorded on each sync run.
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerDemand   = "demand"
	TriggerManual   = "manual"
	TriggerAPI      = "api"
)

var errRefreshAbandoned = errors.New("refresh abandoned: context done")

// Dataset is one computed snapshot of the habit data.
//
// Err is set when the last refresh failed. If an earlier refresh succeeded,
// Stale is true and Records still hold that earlier data; otherwise Records
// is empty.
type Dataset struct {
	Records   []models.TidyRecord
	Summary   models.MetricsSummary
	Report    tidy.Report
	Missing   []string
	Invalid   []string
	FetchedAt time.Time
	RunID     string
	Err       error
	Stale     bool
}

// Unavailable reports whether there is no data to serve because of an error.
func (d Dataset) Unavailable() bool {
	return d.Err != nil && !d.Stale
}

// Fetcher reads raw month tables.
type Fetcher interface {
	Fetch(ctx context.Context) (sheets.FetchResult, error)
}

// RunRecorder persists sync run history.
type RunRecorder interface {
	Create(ctx context.Context, run syncrunstore.Run) error
}

// Config configures a Pipeline.
type Config struct {
	SourceName  string
	DefaultYear int
	CacheTTL    time.Duration
}

// Pipeline owns the dataset cache and the refresh flow.
type Pipeline struct {
	cfg         Config
	fetcher     Fetcher
	transformer *tidy.Transformer
	runs        RunRecorder
	telemetry   *telemetry.Metrics
	publisher   events.Publisher
	cache       *datacache.Cache[Dataset]
	logger      *zap.Logger
	now         func() time.Time
}

// New creates a Pipeline. runs, tm and pub may be nil.
func New(cfg Config, fetcher Fetcher, runs RunRecorder, tm *telemetry.Metrics, pub events.Publisher, logger *zap.Logger) *Pipeline {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Pipeline{
		cfg:         cfg,
		fetcher:     fetcher,
		transformer: tidy.New(tidy.Options{DefaultYear: cfg.DefaultYear}),
		runs:        runs,
		telemetry:   tm,
		publisher:   pub,
		cache:       datacache.New[Dataset](cfg.CacheTTL),
		logger:      logger,
		now:         time.Now,
	}
}

// Current returns the cached dataset, refreshing it first when the cache is
// empty or expired. It never returns a nil-data error: failures travel in
// Dataset.Err.
func (p *Pipeline) Current(ctx context.Context) Dataset {
	if ds, ok := p.cache.Get(); ok {
		p.telemetry.CacheHit()
		return ds
	}
	p.telemetry.CacheMiss()

	// The load is shared by every waiting request, so it must not die with
	// the one request that happened to start it.
	loadCtx, cancel := timeouts.WithTimeout(context.WithoutCancel(ctx), timeouts.Refresh(), p.logger, "demand refresh")
	defer cancel()

	ds, _ := p.cache.GetOrLoad(loadCtx, p.load(TriggerDemand))
	return ds
}

// Refresh recomputes the dataset unconditionally and replaces the cache entry.
// A refresh cut short by ctx leaves the cached entry as it was.
func (p *Pipeline) Refresh(ctx context.Context, trigger string) Dataset {
	ds, _ := p.cache.Reload(ctx, p.load(trigger))
	return ds
}

// load runs one refresh for the cache. A failure while ctx is already done
// is returned as an error so the cache does not keep it.
func (p *Pipeline) load(trigger string) func(context.Context) (Dataset, error) {
	return func(ctx context.Context) (Dataset, error) {
		ds := p.refresh(ctx, trigger)
		if ds.Err != nil && ctx.Err() != nil {
			return ds, errRefreshAbandoned
		}
		return ds, nil
	}
}

// Invalidate drops the cached dataset.
func (p *Pipeline) Invalidate() {
	p.cache.Invalidate()
}

// Snapshot returns whatever is cached, expired or not, without refreshing.
func (p *Pipeline) Snapshot() (Dataset, bool) {
	ds, _, ok := p.cache.Peek()
	return ds, ok
}

func (p *Pipeline) refresh(ctx context.Context, trigger string) Dataset {
	start := p.now()
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID), zap.String("trigger", trigger))

	run := syncrunstore.Run{
		ID:        runID,
		StartedAt: start.UTC(),
		Trigger:   trigger,
		Source:    p.cfg.SourceName,
	}

	fetched, err := p.fetcher.Fetch(ctx)
	if err != nil {
		log.Error("habit data fetch failed", zap.Error(err))
		ds := p.failed(runID, start, err)

		run.Status = syncrunstore.StatusFailed
		run.Error = err.Error()
		run.FinishedAt = p.now().UTC()
		p.finish(ctx, log, run, nil)
		p.telemetry.ObserveRefresh(telemetry.RefreshOutcome{Duration: run.Duration()})
		return ds
	}

	res := p.transformer.TransformWithReport(fetched.Tables)
	rep := res.Report
	switch {
	case rep.UnparseableDates > 0:
		log.Warn("cells dropped during transform",
			zap.Int("blank", rep.BlankCells),
			zap.Int("unparseable_dates", rep.UnparseableDates),
			zap.Strings("unparseable_labels", rep.UnparseableLabels))
	case rep.BlankCells > 0:
		log.Debug("blank cells dropped during transform", zap.Int("blank", rep.BlankCells))
	}

	summary := metrics.Summarize(res.Records)
	ds := Dataset{
		Records:   res.Records,
		Summary:   summary,
		Report:    rep,
		Missing:   fetched.Missing,
		Invalid:   fetched.Invalid,
		FetchedAt: p.now(),
		RunID:     runID,
	}

	run.Status = syncrunstore.StatusSuccess
	run.FinishedAt = p.now().UTC()
	for _, t := range fetched.Tables {
		run.SheetsLoaded = append(run.SheetsLoaded, t.Sheet)
	}
	run.SheetsMissing = fetched.Missing
	run.SheetsInvalid = fetched.Invalid
	run.CellsSeen = rep.CellsSeen
	run.BlankCells = rep.BlankCells
	run.UnparseableDates = rep.UnparseableDates
	run.Records = rep.Records
	run.SuccessRate = summary.SuccessRate

	log.Info("habit dataset refreshed",
		zap.Int("records", rep.Records),
		zap.Int("sheets", len(fetched.Tables)),
		zap.Strings("missing", fetched.Missing),
		zap.Float64("success_rate", summary.SuccessRate),
		zap.Duration("duration", run.Duration()))

	p.finish(ctx, log, run, &summary)
	p.telemetry.ObserveRefresh(telemetry.RefreshOutcome{
		Success:          true,
		Duration:         run.Duration(),
		Records:          rep.Records,
		BlankCells:       rep.BlankCells,
		UnparseableDates: rep.UnparseableDates,
		SheetsMissing:    len(fetched.Missing),
		SheetsInvalid:    len(fetched.Invalid),
		SuccessRate:      summary.SuccessRate,
	})
	return ds
}

// failed builds the dataset served after a failed fetch: the previous good
// records when there are any, otherwise an empty set.
func (p *Pipeline) failed(runID string, start time.Time, err error) Dataset {
	if prev, _, ok := p.cache.Peek(); ok && (prev.Err == nil || prev.Stale) {
		prev.Err = err
		prev.Stale = true
		return prev
	}
	return Dataset{
		Summary:   models.EmptySummary(),
		FetchedAt: start,
		RunID:     runID,
		Err:       err,
	}
}

// finish records the run and publishes the refresh event. Neither failure
// affects the dataset being served.
func (p *Pipeline) finish(ctx context.Context, log *zap.Logger, run syncrunstore.Run, summary *models.MetricsSummary) {
	if p.runs != nil {
		if err := p.runs.Create(ctx, run); err != nil {
			log.Warn("failed to record sync run", zap.Error(err))
		}
	}
	ev := events.Refreshed{
		RunID:      run.ID,
		Status:     run.Status,
		Trigger:    run.Trigger,
		OccurredAt: run.FinishedAt,
		Records:    run.Records,
		Summary:    summary,
		Error:      run.Error,
	}
	if err := p.publisher.PublishRefreshed(ctx, ev); err != nil {
		log.Warn("failed to publish refresh event", zap.Error(err))
	}
}

// IsSourceError reports whether err came from the spreadsheet source.
func IsSourceError(err error) bool {
	return errors.Is(err, sheets.ErrSourceUnavailable)
}
