package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wonny/aegis-credit/internal/model"
)

// FileStore keeps one model as a JSON file
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the model file path
func (s *FileStore) Path() string {
	return s.path
}

// Save writes atomically (temp file + rename in the same directory)
func (s *FileStore) Save(ctx context.Context, snap *model.Snapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := Encode(snap)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp model file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return "", fmt.Errorf("rename model file: %w", err)
	}

	return s.path, nil
}

// Load reads the model file
func (s *FileStore) Load(ctx context.Context) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return snap, nil
}
