// Package filestore persists the dataset registry as a JSON file.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/datalakehq/statingest/internal/core/domain"
)

// Config holds file store configuration.
type Config struct {
	Path string `yaml:"path"`
}

// Store writes the full dataset list on every save, atomically via a
// temp-file rename so a crash mid-write never corrupts the registry.
type Store struct {
	path string
}

// New creates a file-backed store, ensuring the parent directory exists.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("registry file path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create registry directory: %w", err)
		}
	}
	return &Store{path: cfg.Path}, nil
}

// Load reads the dataset list. A missing file is an empty registry.
func (s *Store) Load(ctx context.Context) ([]*domain.Dataset, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var datasets []*domain.Dataset
	if err := json.Unmarshal(data, &datasets); err != nil {
		return nil, fmt.Errorf("failed to parse registry file: %w", err)
	}
	return datasets, nil
}

// Save overwrites the dataset list.
func (s *Store) Save(ctx context.Context, datasets []*domain.Dataset) error {
	data, err := json.MarshalIndent(datasets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace registry file: %w", err)
	}
	return nil
}
