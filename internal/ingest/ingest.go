// Package ingest defines the collaborator contracts the pipeline engine
// consumes. Concrete implementations live under internal/infra.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/datalakehq/statingest/internal/core/domain"
)

var (
	// ErrNoRecords is returned when a dataset probe reports zero records.
	ErrNoRecords = errors.New("no records found for dataset")
)

// RemoteFetcher retrieves raw records from the upstream statistics API.
type RemoteFetcher interface {
	// ProbeTotal returns the total record count available for a dataset.
	ProbeTotal(ctx context.Context, datasetID string) (int, error)

	// FetchPage retrieves one fixed-size page starting at offset.
	FetchPage(ctx context.Context, datasetID string, offset, limit int) ([]domain.RawRecord, error)

	// FetchFiltered retrieves all records matching the given filters.
	FetchFiltered(ctx context.Context, datasetID string, filters map[string][]string) ([]domain.RawRecord, error)
}

// FieldMapper converts raw records into canonical records.
type FieldMapper interface {
	// InferDomain guesses the statistical domain from a dataset title.
	InferDomain(title string) domain.Domain

	// Map converts one raw record to the canonical schema of dom.
	Map(raw domain.RawRecord, dom domain.Domain, datasetID string) (domain.CanonicalRecord, error)
}

// LoadResult reports the outcome of a storage load.
type LoadResult struct {
	RecordsLoaded int
	Location      string
}

// StorageLoader writes canonical records into the lake. Idempotency and
// overwrite semantics are the loader's responsibility.
type StorageLoader interface {
	Load(ctx context.Context, tableName string, records []domain.CanonicalRecord) (LoadResult, error)
}

// DatasetMeta is what gets registered in the metadata catalog after a run.
type DatasetMeta struct {
	DatasetID        string
	Name             string
	Domain           domain.Domain
	RecordsLoaded    int
	StorageLocations []string
	IngestedAt       time.Time
}

// MetadataSink is an optional catalog collaborator. Registration is
// best-effort; failures never fail a run.
type MetadataSink interface {
	Register(ctx context.Context, meta DatasetMeta) error
	UpdateStatus(ctx context.Context, datasetID string, status domain.DatasetStatus, errMsg string) error
}
