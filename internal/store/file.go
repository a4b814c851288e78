package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/ml"
	"github.com/KaramelBytes/rulescout/internal/utils"
)

const (
	indexFileName       = "index.json"
	predictionsFileName = "predictions.json"
	datasetsDir         = "datasets"
	modelsDir           = "models"
)

// FileStore keeps datasets and models in memory and mirrors them under a
// directory: datasets/<id>.csv, models/<id>.json, index.json and the
// predictions.json append log.
type FileStore struct {
	dir string
	log logrus.FieldLogger
	now func() time.Time

	mu          sync.RWMutex
	datasets    map[string]*dataset.Dataset
	models      map[string]*ml.Model
	index       map[string]DatasetInfo
	predictions []PredictionRecord
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens or creates a store rooted at dir.
func NewFileStore(dir string, log logrus.FieldLogger) (*FileStore, error) {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	for _, d := range []string{dir, filepath.Join(dir, datasetsDir), filepath.Join(dir, modelsDir)} {
		if err := utils.EnsureDir(d); err != nil {
			return nil, fmt.Errorf("ensure dir: %w", err)
		}
	}
	s := &FileStore{
		dir:      dir,
		log:      log.WithField("store", "file"),
		now:      time.Now,
		datasets: make(map[string]*dataset.Dataset),
		models:   make(map[string]*ml.Model),
		index:    make(map[string]DatasetInfo),
	}
	if err := readJSON(filepath.Join(dir, indexFileName), &s.index); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if err := readJSON(filepath.Join(dir, predictionsFileName), &s.predictions); err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	return s, nil
}

// Dir returns the root directory of the store.
func (s *FileStore) Dir() string { return s.dir }

// SaveDataset implements Store.
func (s *FileStore) SaveDataset(_ context.Context, id string, ds *dataset.Dataset) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := utils.SafeWriteFile(s.datasetPath(id), buf.Bytes()); err != nil {
		return err
	}
	info := infoFor(id, ds, s.now())
	if old, ok := s.index[id]; ok {
		info.HasModel = old.HasModel
	}
	s.index[id] = info
	s.datasets[id] = ds
	s.log.WithFields(logrus.Fields{"dataset_id": id, "rows": info.Rows}).Debug("Stored dataset")
	return s.writeIndex()
}

// Dataset implements Store. Datasets not yet in memory are loaded from disk.
func (s *FileStore) Dataset(_ context.Context, id string) (*dataset.Dataset, error) {
	if err := checkID(id); err != nil {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	ds, ok := s.datasets[id]
	s.mu.RUnlock()
	if ok {
		return ds, nil
	}

	ds, err := dataset.LoadFile(s.datasetPath(id), dataset.DefaultOptions())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load dataset %s: %w", id, err)
	}
	s.mu.Lock()
	if info, ok := s.index[id]; ok && info.Name != "" {
		ds.Name = info.Name
	}
	s.datasets[id] = ds
	s.mu.Unlock()
	return ds, nil
}

// SaveModel implements Store.
func (s *FileStore) SaveModel(_ context.Context, id string, m *ml.Model) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := utils.SafeWriteFile(s.modelPath(id), data); err != nil {
		return err
	}
	s.models[id] = m
	info, ok := s.index[id]
	if !ok {
		info = DatasetInfo{ID: id, CreatedAt: s.now()}
	}
	info.HasModel = true
	s.index[id] = info
	return s.writeIndex()
}

// Model implements Store.
func (s *FileStore) Model(_ context.Context, id string) (*ml.Model, error) {
	if err := checkID(id); err != nil {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	m, ok := s.models[id]
	s.mu.RUnlock()
	if ok {
		return m, nil
	}

	data, err := os.ReadFile(s.modelPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("model %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("read model: %w", err)
	}
	m = &ml.Model{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	s.mu.Lock()
	s.models[id] = m
	s.mu.Unlock()
	return m, nil
}

// AppendPrediction implements Store. The log file is rewritten on every
// append; write failures are logged and do not lose the in-memory entry.
func (s *FileStore) AppendPrediction(_ context.Context, rec PredictionRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prepare(&rec, s.now())
	s.predictions = append(s.predictions, rec)

	data, err := utils.PrettyJSON(s.predictions)
	if err == nil {
		err = utils.SafeWriteFile(filepath.Join(s.dir, predictionsFileName), data)
	}
	if err != nil {
		s.log.WithError(err).Warn("Failed to persist prediction log")
	}
	return rec.PredictionID, nil
}

// Predictions implements Store.
func (s *FileStore) Predictions(_ context.Context, datasetID string) ([]PredictionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.predictions, datasetID), nil
}

// List implements Store. Entries are ordered by creation time, then id.
func (s *FileStore) List(_ context.Context) ([]DatasetInfo, error) {
	s.mu.RLock()
	out := make([]DatasetInfo, 0, len(s.index))
	for _, info := range s.index {
		out = append(out, info)
	}
	s.mu.RUnlock()
	sortInfos(out)
	return out, nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) datasetPath(id string) string {
	return filepath.Join(s.dir, datasetsDir, id+".csv")
}

func (s *FileStore) modelPath(id string) string {
	return filepath.Join(s.dir, modelsDir, id+".json")
}

// writeIndex must be called with mu held.
func (s *FileStore) writeIndex() error {
	data, err := utils.PrettyJSON(s.index)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.dir, indexFileName), data)
}

// readJSON decodes path into v; a missing file leaves v untouched.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func sortInfos(infos []DatasetInfo) {
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.Before(infos[j].CreatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
}
