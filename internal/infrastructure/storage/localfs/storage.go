// Package localfs archives report artifacts on the local filesystem. Each
// report gets a directory with JSON, Markdown and rendered HTML renditions.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage writes and reads artifact files under one base directory. Keys may
// contain subdirectories; parents are created on demand.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/reports"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	path := filepath.Join(s.basePath, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path := filepath.Join(s.basePath, key)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Path returns the absolute-ish location of a key for reporting back to
// callers. The file may or may not exist.
func (s *Storage) Path(key string) string {
	return filepath.Join(s.basePath, key)
}
