package registry

import (
	"context"

	"github.com/datalakehq/statingest/internal/core/domain"
)

// Store is the durable backing of the registry. The registry owns the
// authoritative in-memory copy: Load runs once at construction and Save
// overwrites the full dataset list after every mutation.
type Store interface {
	Load(ctx context.Context) ([]*domain.Dataset, error)
	Save(ctx context.Context, datasets []*domain.Dataset) error
}

// MemoryStore is a Store for tests and ephemeral runs.
type MemoryStore struct {
	datasets []*domain.Dataset
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]*domain.Dataset, error) {
	return s.datasets, nil
}

func (s *MemoryStore) Save(ctx context.Context, datasets []*domain.Dataset) error {
	s.datasets = datasets
	return nil
}
