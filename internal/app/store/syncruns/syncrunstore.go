// internal/app/store/syncruns/syncrunstore.go
package syncrunstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding refresh runs.
const CollectionName = "sync_runs"

// Run status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ErrNotFound is returned when no sync run exists.
var ErrNotFound = errors.New("sync run not found")

// Run records one refresh of the habit dataset from the spreadsheet.
type Run struct {
	ID         string    `bson:"_id" json:"id"`
	StartedAt  time.Time `bson:"started_at" json:"started_at"`
	FinishedAt time.Time `bson:"finished_at" json:"finished_at"`
	Status     string    `bson:"status" json:"status"`
	Trigger    string    `bson:"trigger" json:"trigger"` // "startup", "schedule", "manual", "api"
	Source     string    `bson:"source" json:"source"`

	SheetsLoaded  []string `bson:"sheets_loaded,omitempty" json:"sheets_loaded,omitempty"`
	SheetsMissing []string `bson:"sheets_missing,omitempty" json:"sheets_missing,omitempty"`
	SheetsInvalid []string `bson:"sheets_invalid,omitempty" json:"sheets_invalid,omitempty"`

	CellsSeen        int `bson:"cells_seen" json:"cells_seen"`
	BlankCells       int `bson:"blank_cells" json:"blank_cells"`
	UnparseableDates int `bson:"unparseable_dates" json:"unparseable_dates"`
	Records          int `bson:"records" json:"records"`

	SuccessRate float64 `bson:"success_rate" json:"success_rate"`
	Error       string  `bson:"error,omitempty" json:"error,omitempty"`
}

// Duration is the wall time the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists sync runs.
type Store struct {
	c *mongo.Collection
}

// New creates a new sync run store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Create inserts a run. StartedAt defaults to now.
func (s *Store) Create(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("sync run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, run)
	return err
}

// ListRecent returns up to limit runs, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]Run, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	runs := []Run{}
	if err := cur.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// Latest returns the most recent run, optionally restricted to a status.
func (s *Store) Latest(ctx context.Context, status string) (Run, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}})

	var run Run
	err := s.c.FindOne(ctx, filter, opts).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Run{}, ErrNotFound
	}
	return run, err
}

// DeleteOlderThan removes runs started before cutoff and returns the count.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"started_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
