package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/ml"
)

// riskFrame is separable on attendance: below 70 is High risk.
func riskFrame(t *testing.T) *dataset.Dataset {
	t.Helper()
	var att, dept, risk []string
	for i := 0; i < 30; i++ {
		a := 50 + i
		if i%2 == 1 {
			a = 85 + i/3
		}
		att = append(att, fmt.Sprint(a))
		dept = append(dept, []string{"HR", "IT", "Ops"}[i%3])
		if a < 70 {
			risk = append(risk, "High")
		} else {
			risk = append(risk, "Low")
		}
	}
	ds, err := dataset.FromColumns("risk.csv", []string{"attendance", "dept", "risk_level"}, [][]string{att, dept, risk})
	require.NoError(t, err)
	return ds
}

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, "test:", nil)
	t.Cleanup(func() { _ = s.Close() })
	return mr, s
}

func backends(t *testing.T) map[string]Store {
	fs, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	_, rs := newRedisStore(t)
	return map[string]Store{"file": fs, "redis": rs}
}

func TestStoreDatasetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ds := riskFrame(t)
			require.NoError(t, s.SaveDataset(ctx, "abc", ds))

			got, err := s.Dataset(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, ds.ColumnNames(), got.ColumnNames())
			assert.Equal(t, ds.Rows(), got.Rows())
			assert.Equal(t, ds.Strings(3), got.Strings(3))
			assert.Equal(t, "risk.csv", got.Name)

			_, err = s.Dataset(ctx, "missing")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestStoreModelRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, m := ml.Discover(riskFrame(t), "HR")
			require.NotNil(t, m)
			require.NoError(t, s.SaveModel(ctx, "abc", m))

			got, err := s.Model(ctx, "abc")
			require.NoError(t, err)
			in := map[string]any{"attendance": 55.0, "dept": "IT"}
			assert.Equal(t, m.Predict(in), got.Predict(in))

			_, err = s.Model(ctx, "nope")
			assert.True(t, errors.Is(err, ErrNotFound))
			assert.True(t, errors.Is(s.SaveModel(ctx, "abc", nil), ml.ErrNotTrained))
		})
	}
}

func TestStorePredictionLog(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			id1, err := s.AppendPrediction(ctx, PredictionRecord{
				DatasetID:        "a",
				InputData:        map[string]any{"attendance": 55.0},
				PredictionResult: ml.Prediction{PredictedOutcome: "High", Confidence: 0.9},
			})
			require.NoError(t, err)
			_, err = s.AppendPrediction(ctx, PredictionRecord{DatasetID: "b"})
			require.NoError(t, err)
			id3, err := s.AppendPrediction(ctx, PredictionRecord{DatasetID: "a"})
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id1, "pred_"))
			assert.NotEqual(t, id1, id3)

			all, err := s.Predictions(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			onlyA, err := s.Predictions(ctx, "a")
			require.NoError(t, err)
			require.Len(t, onlyA, 2)
			assert.Equal(t, id1, onlyA[0].PredictionID)
			assert.Equal(t, id3, onlyA[1].PredictionID)
			assert.Equal(t, "High", onlyA[0].PredictionResult.PredictedOutcome)
			assert.Equal(t, 55.0, onlyA[0].InputData["attendance"])
			assert.False(t, onlyA[0].Timestamp.IsZero())

			none, err := s.Predictions(ctx, "zzz")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveDataset(ctx, "one", riskFrame(t)))
			_, m := ml.Discover(riskFrame(t), "HR")
			require.NoError(t, s.SaveModel(ctx, "one", m))
			require.NoError(t, s.SaveDataset(ctx, "two", riskFrame(t)))

			infos, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, infos, 2)
			byID := map[string]DatasetInfo{}
			for _, in := range infos {
				byID[in.ID] = in
			}
			assert.True(t, byID["one"].HasModel)
			assert.False(t, byID["two"].HasModel)
			assert.Equal(t, 30, byID["two"].Rows)
			assert.Equal(t, 3, byID["two"].Columns)
		})
	}
}

func TestStoreRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.SaveDataset(ctx, "../escape", riskFrame(t)))
			assert.Error(t, s.SaveDataset(ctx, "", riskFrame(t)))
			assert.True(t, errors.Is(s.SaveDataset(ctx, "x", nil), dataset.ErrEmpty))
		})
	}
}

func TestFileStoreReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveDataset(ctx, "abc", riskFrame(t)))
	_, m := ml.Discover(riskFrame(t), "HR")
	require.NoError(t, s.SaveModel(ctx, "abc", m))
	_, err = s.AppendPrediction(ctx, PredictionRecord{DatasetID: "abc"})
	require.NoError(t, err)

	re, err := NewFileStore(dir, nil)
	require.NoError(t, err)
	ds, err := re.Dataset(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 30, ds.Rows())
	assert.Equal(t, "risk.csv", ds.Name)
	got, err := re.Model(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, m.TargetColumn, got.TargetColumn)
	preds, err := re.Predictions(ctx, "abc")
	require.NoError(t, err)
	assert.Len(t, preds, 1)
}

func TestFileStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AppendPrediction(ctx, PredictionRecord{DatasetID: "c"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	preds, err := s.Predictions(ctx, "c")
	require.NoError(t, err)
	assert.Len(t, preds, 20)
}

// A model replaced while predictions read it is seen whole, either before or
// after the write, with no ordering between the two.
func TestModelReplacedDuringReads(t *testing.T) {
	ctx := context.Background()
	_, m := ml.Discover(riskFrame(t), "HR")
	require.NotNil(t, m)
	next := *m
	next.TargetColumn = "risk_level_v2"

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveModel(ctx, "abc", m))

			var wg sync.WaitGroup
			seen := make(chan string, 40)
			for i := 0; i < 40; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if i%4 == 0 {
						assert.NoError(t, s.SaveModel(ctx, "abc", &next))
						return
					}
					got, err := s.Model(ctx, "abc")
					if assert.NoError(t, err) {
						seen <- got.TargetColumn
					}
				}(i)
			}
			wg.Wait()
			close(seen)
			for target := range seen {
				assert.Contains(t, []string{"risk_level", "risk_level_v2"}, target)
			}

			got, err := s.Model(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, "risk_level_v2", got.TargetColumn)
		})
	}
}

func TestRedisStoreUsesPrefix(t *testing.T) {
	ctx := context.Background()
	mr, s := newRedisStore(t)
	require.NoError(t, s.SaveDataset(ctx, "abc", riskFrame(t)))
	assert.True(t, mr.Exists("test:dataset:abc"))
	assert.True(t, mr.Exists("test:datasets"))
}

func TestNewPredictionID(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 6, 123456000, time.UTC)
	id := newPredictionID(ts)
	assert.True(t, strings.HasPrefix(id, "pred_20240309_140506_123456_"), id)
	assert.Len(t, id, len("pred_20240309_140506_123456_")+8)
}
