package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Loader turns raw file bytes into a Dataset.
type Loader interface {
	CanLoad(name string) bool
	Load(name string, data []byte, opt Options) (*Dataset, error)
}

// ErrUnsupported indicates a file format with no registered loader.
var ErrUnsupported = errors.New("unsupported dataset format")

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// Read selects a loader by file name and parses data.
func Read(name string, data []byte, opt Options) (*Dataset, error) {
	for _, l := range registry {
		if l.CanLoad(name) {
			ds, err := l.Load(filepath.Base(name), data, opt)
			if err != nil {
				return nil, err
			}
			if ds.Empty() {
				return nil, fmt.Errorf("%s: %w", filepath.Base(name), ErrEmpty)
			}
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(name), ErrUnsupported)
}

// LoadFile reads a dataset from disk.
func LoadFile(path string, opt Options) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Read(path, data, opt)
}
