package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/ml"
)

// DefaultRedisPrefix namespaces every key written by RedisStore.
const DefaultRedisPrefix = "rulescout:"

// RedisStore keeps datasets as CSV strings, models as JSON and the
// prediction log as Redis lists (one global, one per dataset).
type RedisStore struct {
	client *redis.Client
	prefix string
	log    logrus.FieldLogger
	now    func() time.Time
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps client. An empty prefix uses DefaultRedisPrefix.
func NewRedisStore(client *redis.Client, prefix string, log logrus.FieldLogger) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &RedisStore{client: client, prefix: prefix, log: log.WithField("store", "redis"), now: time.Now}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, prefix string, log logrus.FieldLogger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return NewRedisStore(client, prefix, log), nil
}

func (s *RedisStore) datasetKey(id string) string { return s.prefix + "dataset:" + id }
func (s *RedisStore) modelKey(id string) string   { return s.prefix + "model:" + id }
func (s *RedisStore) indexKey() string            { return s.prefix + "datasets" }
func (s *RedisStore) logKey() string              { return s.prefix + "predictions" }
func (s *RedisStore) datasetLogKey(id string) string {
	return s.prefix + "predictions:" + id
}

// SaveDataset implements Store.
func (s *RedisStore) SaveDataset(ctx context.Context, id string, ds *dataset.Dataset) error {
	if err := checkID(id); err != nil {
		return err
	}
	if ds.Empty() {
		return dataset.ErrEmpty
	}
	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, ds); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	info := infoFor(id, ds, s.now())
	if old, err := s.info(ctx, id); err == nil {
		info.HasModel = old.HasModel
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode dataset info: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.datasetKey(id), buf.String(), 0)
		p.HSet(ctx, s.indexKey(), id, meta)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store dataset %s: %w", id, err)
	}
	s.log.WithFields(logrus.Fields{"dataset_id": id, "rows": info.Rows}).Debug("Stored dataset")
	return nil
}

// Dataset implements Store.
func (s *RedisStore) Dataset(ctx context.Context, id string) (*dataset.Dataset, error) {
	data, err := s.client.Get(ctx, s.datasetKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset %s: %w", id, err)
	}
	name := id + ".csv"
	if info, err := s.info(ctx, id); err == nil && info.Name != "" {
		name = info.Name
	}
	ds, err := dataset.Read(id+".csv", data, dataset.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", id, err)
	}
	ds.Name = name
	return ds, nil
}

// SaveModel implements Store.
func (s *RedisStore) SaveModel(ctx context.Context, id string, m *ml.Model) error {
	if err := checkID(id); err != nil {
		return err
	}
	if m == nil {
		return ml.ErrNotTrained
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	info, err := s.info(ctx, id)
	if errors.Is(err, ErrNotFound) {
		info = DatasetInfo{ID: id, CreatedAt: s.now()}
	} else if err != nil {
		return err
	}
	info.HasModel = true
	meta, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode dataset info: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.modelKey(id), data, 0)
		p.HSet(ctx, s.indexKey(), id, meta)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store model %s: %w", id, err)
	}
	return nil
}

// Model implements Store.
func (s *RedisStore) Model(ctx context.Context, id string) (*ml.Model, error) {
	data, err := s.client.Get(ctx, s.modelKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("model %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get model %s: %w", id, err)
	}
	m := &ml.Model{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	return m, nil
}

// AppendPrediction implements Store.
func (s *RedisStore) AppendPrediction(ctx context.Context, rec PredictionRecord) (string, error) {
	prepare(&rec, s.now())
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode prediction: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, s.logKey(), data)
		if rec.DatasetID != "" {
			p.RPush(ctx, s.datasetLogKey(rec.DatasetID), data)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("append prediction: %w", err)
	}
	return rec.PredictionID, nil
}

// Predictions implements Store.
func (s *RedisStore) Predictions(ctx context.Context, datasetID string) ([]PredictionRecord, error) {
	key := s.logKey()
	if datasetID != "" {
		key = s.datasetLogKey(datasetID)
	}
	items, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	out := make([]PredictionRecord, 0, len(items))
	for _, it := range items {
		var rec PredictionRecord
		if err := json.Unmarshal([]byte(it), &rec); err != nil {
			s.log.WithError(err).Warn("Skipping malformed prediction entry")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) ([]DatasetInfo, error) {
	all, err := s.client.HGetAll(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	out := make([]DatasetInfo, 0, len(all))
	for id, raw := range all {
		var info DatasetInfo
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			s.log.WithError(err).WithField("dataset_id", id).Warn("Skipping malformed index entry")
			continue
		}
		out = append(out, info)
	}
	sortInfos(out)
	return out, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) info(ctx context.Context, id string) (DatasetInfo, error) {
	raw, err := s.client.HGet(ctx, s.indexKey(), id).Result()
	if errors.Is(err, redis.Nil) {
		return DatasetInfo{}, ErrNotFound
	}
	if err != nil {
		return DatasetInfo{}, fmt.Errorf("get dataset info: %w", err)
	}
	var info DatasetInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return DatasetInfo{}, fmt.Errorf("parse dataset info: %w", err)
	}
	return info, nil
}
