// Package catalog implements the optional metadata sink on PostgreSQL.
package catalog

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/datalakehq/statingest/internal/core/domain"
	"github.com/datalakehq/statingest/internal/ingest"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config holds PostgreSQL connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Catalog records per-dataset ingestion metadata for downstream discovery.
type Catalog struct {
	db  *sqlx.DB
	log *slog.Logger
}

// New connects, migrates the schema and returns a Catalog.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Catalog, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog db: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	} else {
		db.SetMaxOpenConns(10)
	}
	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(cfg.MinConns)
	} else {
		db.SetMaxIdleConns(2)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping catalog db: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}

	return &Catalog{db: db, log: log}, nil
}

// Close closes the underlying connection pool.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Register upserts a dataset's catalog row after a successful load.
func (c *Catalog) Register(ctx context.Context, meta ingest.DatasetMeta) error {
	const q = `
		INSERT INTO dataset_catalog
			(dataset_id, name, domain, records_loaded, storage_locations, status, ingested_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'completed', $6, NOW())
		ON CONFLICT (dataset_id) DO UPDATE SET
			name              = EXCLUDED.name,
			domain            = EXCLUDED.domain,
			records_loaded    = EXCLUDED.records_loaded,
			storage_locations = EXCLUDED.storage_locations,
			status            = 'completed',
			error_message     = NULL,
			ingested_at       = EXCLUDED.ingested_at,
			updated_at        = NOW()`

	_, err := c.db.ExecContext(ctx, q,
		meta.DatasetID,
		meta.Name,
		string(meta.Domain),
		meta.RecordsLoaded,
		strings.Join(meta.StorageLocations, ","),
		meta.IngestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to register dataset metadata: %w", err)
	}
	return nil
}

// UpdateStatus records a terminal run status for a dataset. The row is
// created if the dataset never completed a run before.
func (c *Catalog) UpdateStatus(ctx context.Context, datasetID string, status domain.DatasetStatus, errMsg string) error {
	const q = `
		INSERT INTO dataset_catalog (dataset_id, name, domain, status, error_message, updated_at)
		VALUES ($1, '', 'generic', $2, NULLIF($3, ''), NOW())
		ON CONFLICT (dataset_id) DO UPDATE SET
			status        = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			updated_at    = NOW()`

	if _, err := c.db.ExecContext(ctx, q, datasetID, string(status), errMsg); err != nil {
		return fmt.Errorf("failed to update dataset status: %w", err)
	}
	return nil
}
