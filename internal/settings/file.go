package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists settings as a flat JSON object on disk.
type FileStore struct {
	mu       sync.Mutex
	filePath string
	values   map[string]string
}

// OpenFileStore loads the file at filePath. A missing file starts empty.
func OpenFileStore(filePath string) (*FileStore, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(filePath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parse settings file: %w", err)
		}
	}
	return &FileStore{filePath: filePath, values: values}, nil
}

func (f *FileStore) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *FileStore) Set(key, value string) error {
	return f.SetMany(map[string]string{key: value})
}

func (f *FileStore) SetMany(values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range values {
		f.values[k] = v
	}
	return f.save()
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(f.filePath), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.filePath, data, 0o600)
}
