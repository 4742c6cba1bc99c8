package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	syncrunstore "github.com/dalemusser/stratahabits/internal/app/store/syncruns"
	"github.com/dalemusser/stratahabits/internal/app/system/events"
	"github.com/dalemusser/stratahabits/internal/app/system/sheets"
	"github.com/dalemusser/stratahabits/internal/app/system/telemetry"
	"github.com/dalemusser/stratahabits/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	mu    sync.Mutex
	res   sheets.FetchResult
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context) (sheets.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.res, f.err
}

func (f *fakeFetcher) set(res sheets.FetchResult, err error) {
	f.mu.Lock()
	f.res, f.err = res, err
	f.mu.Unlock()
}

type fakeRuns struct {
	mu   sync.Mutex
	runs []syncrunstore.Run
}

func (f *fakeRuns) Create(ctx context.Context, run syncrunstore.Run) error {
	f.mu.Lock()
	f.runs = append(f.runs, run)
	f.mu.Unlock()
	return nil
}

type fakePublisher struct {
	events []events.Refreshed
}

func (f *fakePublisher) PublishRefreshed(ctx context.Context, ev events.Refreshed) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func januaryTables() sheets.FetchResult {
	return sheets.FetchResult{
		Tables: []models.RawMonthTable{{
			Sheet:   "jan",
			Columns: []string{"01/01", "02/01", "bogus"},
			Rows: []models.RawRow{
				{Type: "Health", Habit: "Run", Cells: []string{"1", "0", "1"}},
				{Type: "Mind", Habit: "Read", Cells: []string{"1", "", "1"}},
			},
		}},
		Missing: []string{"feb"},
	}
}

func newTestPipeline(f Fetcher) (*Pipeline, *fakeRuns, *fakePublisher) {
	runs := &fakeRuns{}
	pub := &fakePublisher{}
	p := New(Config{SourceName: "csv", DefaultYear: 2025, CacheTTL: time.Hour}, f, runs, telemetry.New(), pub, zap.NewNop())
	return p, runs, pub
}

func TestRefreshSuccess(t *testing.T) {
	f := &fakeFetcher{res: januaryTables()}
	p, runs, pub := newTestPipeline(f)

	ds := p.Refresh(context.Background(), TriggerManual)
	require.NoError(t, ds.Err)
	assert.False(t, ds.Stale)
	assert.Len(t, ds.Records, 3)
	assert.Equal(t, 1, ds.Report.BlankCells)
	assert.Equal(t, 2, ds.Report.UnparseableDates)
	assert.Equal(t, []string{"feb"}, ds.Missing)
	assert.InDelta(t, 2.0/3.0, ds.Summary.SuccessRate, 1e-9)
	assert.NotEmpty(t, ds.RunID)

	require.Len(t, runs.runs, 1)
	run := runs.runs[0]
	assert.Equal(t, syncrunstore.StatusSuccess, run.Status)
	assert.Equal(t, TriggerManual, run.Trigger)
	assert.Equal(t, "csv", run.Source)
	assert.Equal(t, []string{"jan"}, run.SheetsLoaded)
	assert.Equal(t, ds.RunID, run.ID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, ds.RunID, pub.events[0].RunID)
	assert.NotNil(t, pub.events[0].Summary)
}

func TestCurrentUsesCache(t *testing.T) {
	f := &fakeFetcher{res: januaryTables()}
	p, _, _ := newTestPipeline(f)

	first := p.Current(context.Background())
	second := p.Current(context.Background())
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, 1, f.calls)

	p.Invalidate()
	third := p.Current(context.Background())
	assert.NotEqual(t, first.RunID, third.RunID)
	assert.Equal(t, 2, f.calls)
}

func TestRefreshFailureWithoutPreviousData(t *testing.T) {
	f := &fakeFetcher{err: sheets.ErrSourceUnavailable}
	p, runs, _ := newTestPipeline(f)

	ds := p.Current(context.Background())
	require.Error(t, ds.Err)
	assert.True(t, IsSourceError(ds.Err))
	assert.True(t, ds.Unavailable())
	assert.Empty(t, ds.Records)
	assert.Equal(t, models.NotApplicable, ds.Summary.BestMonth)

	require.Len(t, runs.runs, 1)
	assert.Equal(t, syncrunstore.StatusFailed, runs.runs[0].Status)
	assert.NotEmpty(t, runs.runs[0].Error)
}

func TestRefreshFailureKeepsPreviousData(t *testing.T) {
	f := &fakeFetcher{res: januaryTables()}
	p, _, _ := newTestPipeline(f)

	good := p.Refresh(context.Background(), TriggerStartup)
	require.NoError(t, good.Err)

	f.set(sheets.FetchResult{}, errors.New("quota exceeded"))
	ds := p.Refresh(context.Background(), TriggerSchedule)
	require.Error(t, ds.Err)
	assert.True(t, ds.Stale)
	assert.False(t, ds.Unavailable())
	assert.Len(t, ds.Records, len(good.Records))
	assert.Equal(t, good.RunID, ds.RunID)

	// A second failure still serves the same records.
	ds = p.Refresh(context.Background(), TriggerSchedule)
	assert.True(t, ds.Stale)
	assert.Len(t, ds.Records, len(good.Records))

	f.set(januaryTables(), nil)
	ds = p.Refresh(context.Background(), TriggerSchedule)
	assert.NoError(t, ds.Err)
	assert.False(t, ds.Stale)
}

func TestRefreshEmptySource(t *testing.T) {
	f := &fakeFetcher{res: sheets.FetchResult{Missing: []string{"jan"}}}
	p, _, _ := newTestPipeline(f)

	ds := p.Refresh(context.Background(), TriggerManual)
	require.NoError(t, ds.Err)
	assert.Empty(t, ds.Records)
	assert.Equal(t, models.EmptySummary(), ds.Summary)
}

func TestSnapshot(t *testing.T) {
	p, _, _ := newTestPipeline(&fakeFetcher{res: januaryTables()})
	_, ok := p.Snapshot()
	assert.False(t, ok)

	p.Refresh(context.Background(), TriggerManual)
	ds, ok := p.Snapshot()
	assert.True(t, ok)
	assert.Len(t, ds.Records, 3)
}

// ctxFetcher fails the way a real source does when its context is done.
type ctxFetcher struct {
	fakeFetcher
}

func (f *ctxFetcher) Fetch(ctx context.Context) (sheets.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		f.mu.Lock()
		f.calls++
		f.mu.Unlock()
		return sheets.FetchResult{}, err
	}
	return f.fakeFetcher.Fetch(ctx)
}

func TestCurrentSurvivesCancelledCaller(t *testing.T) {
	f := &ctxFetcher{fakeFetcher{res: januaryTables()}}
	p, _, _ := newTestPipeline(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds := p.Current(ctx)
	require.NoError(t, ds.Err)
	assert.Len(t, ds.Records, 3)

	next := p.Current(context.Background())
	require.NoError(t, next.Err)
	assert.False(t, next.Unavailable())
	assert.Equal(t, ds.RunID, next.RunID)
	assert.Equal(t, 1, f.calls)
}

func TestRefreshCancelledDoesNotCacheFailure(t *testing.T) {
	f := &ctxFetcher{fakeFetcher{res: januaryTables()}}
	p, _, _ := newTestPipeline(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds := p.Refresh(ctx, TriggerManual)
	require.ErrorIs(t, ds.Err, context.Canceled)
	_, ok := p.Snapshot()
	assert.False(t, ok, "an abandoned refresh must not be cached")

	next := p.Current(context.Background())
	require.NoError(t, next.Err)
	assert.Len(t, next.Records, 3)
}

func TestRefreshCancelledKeepsGoodEntry(t *testing.T) {
	f := &ctxFetcher{fakeFetcher{res: januaryTables()}}
	p, _, _ := newTestPipeline(f)

	good := p.Refresh(context.Background(), TriggerStartup)
	require.NoError(t, good.Err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ds := p.Refresh(ctx, TriggerManual)
	assert.True(t, ds.Stale)

	cached, ok := p.Snapshot()
	require.True(t, ok)
	assert.NoError(t, cached.Err)
	assert.False(t, cached.Stale)
	assert.Equal(t, good.RunID, cached.RunID)
}
