// Package store persists uploaded datasets, their trained models and the
// prediction log.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/ml"
)

// ErrNotFound is returned for unknown dataset or model ids.
var ErrNotFound = errors.New("not found")

// DatasetInfo is the index entry of a stored dataset.
type DatasetInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	HasModel  bool      `json:"has_model"`
	CreatedAt time.Time `json:"created_at"`
}

// PredictionRecord is one entry of the prediction log.
type PredictionRecord struct {
	PredictionID     string         `json:"prediction_id"`
	DatasetID        string         `json:"dataset_id"`
	Timestamp        time.Time      `json:"timestamp"`
	InputData        map[string]any `json:"input_data"`
	PredictionResult ml.Prediction  `json:"prediction_result"`
}

// Store is implemented by FileStore and RedisStore. Implementations are safe
// for concurrent use, but calls are not ordered against each other: a
// prediction racing SaveModel for the same id may use either model, and the
// last SaveModel wins.
type Store interface {
	SaveDataset(ctx context.Context, id string, ds *dataset.Dataset) error
	Dataset(ctx context.Context, id string) (*dataset.Dataset, error)
	SaveModel(ctx context.Context, id string, m *ml.Model) error
	Model(ctx context.Context, id string) (*ml.Model, error)
	// AppendPrediction logs rec and returns its id. Empty ids and zero
	// timestamps are filled in.
	AppendPrediction(ctx context.Context, rec PredictionRecord) (string, error)
	// Predictions returns the log in append order; an empty datasetID
	// returns every entry.
	Predictions(ctx context.Context, datasetID string) ([]PredictionRecord, error)
	List(ctx context.Context) ([]DatasetInfo, error)
	Close() error
}

// NewDatasetID returns a fresh dataset id.
func NewDatasetID() string { return uuid.NewString() }

// newPredictionID stamps the time down to the microsecond and adds a short
// random suffix so ids stay unique within one microsecond.
func newPredictionID(now time.Time) string {
	return fmt.Sprintf("pred_%s_%06d_%s", now.Format("20060102_150405"), now.Nanosecond()/1000, uuid.NewString()[:8])
}

func prepare(rec *PredictionRecord, now time.Time) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = now
	}
	if rec.PredictionID == "" {
		rec.PredictionID = newPredictionID(rec.Timestamp)
	}
}

func filter(all []PredictionRecord, datasetID string) []PredictionRecord {
	out := []PredictionRecord{}
	for _, r := range all {
		if datasetID == "" || r.DatasetID == datasetID {
			out = append(out, r)
		}
	}
	return out
}

func infoFor(id string, ds *dataset.Dataset, now time.Time) DatasetInfo {
	return DatasetInfo{
		ID:        id,
		Name:      ds.Name,
		Rows:      ds.Rows(),
		Columns:   len(ds.Columns),
		CreatedAt: now,
	}
}

func checkID(id string) error {
	if id == "" {
		return errors.New("empty id")
	}
	for _, r := range id {
		if r == '/' || r == '\\' || r == '.' {
			return fmt.Errorf("invalid id %q", id)
		}
	}
	return nil
}
