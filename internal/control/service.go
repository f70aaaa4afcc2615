// Package control wires configuration into a runnable ingestion service.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/datalakehq/statingest/internal/core/config"
	"github.com/datalakehq/statingest/internal/ingest"
	"github.com/datalakehq/statingest/internal/ingest/fetch"
	"github.com/datalakehq/statingest/internal/ingest/health"
	"github.com/datalakehq/statingest/internal/ingest/orchestrator"
	"github.com/datalakehq/statingest/internal/ingest/retry"
	"github.com/datalakehq/statingest/internal/infra/catalog"
	"github.com/datalakehq/statingest/internal/infra/filestore"
	"github.com/datalakehq/statingest/internal/infra/redisstore"
	"github.com/datalakehq/statingest/internal/infra/s3store"
	"github.com/datalakehq/statingest/internal/infra/statapi"
	"github.com/datalakehq/statingest/internal/mapper"
	"github.com/datalakehq/statingest/internal/registry"
)

// Service holds the assembled pipeline and its collaborators.
type Service struct {
	cfg config.AppConfig
	log *slog.Logger

	Registry     *registry.Registry
	Orchestrator *orchestrator.Orchestrator
	Engine       *retry.Engine
	API          *statapi.Client
	Mapper       *mapper.Mapper

	healthServer *health.Server
	catalogSink  *catalog.Catalog
	redisStore   *redisstore.Store
}

// NewService builds every component from configuration. The metadata
// catalog is wired in only when a catalog URL is configured.
func NewService(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{cfg: cfg, log: log}

	// 1. Registry persistence
	var store registry.Store
	switch cfg.Registry.Backend {
	case "redis":
		rs, err := redisstore.New(cfg.Registry.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis registry store: %w", err)
		}
		s.redisStore = rs
		store = rs
		log.Info("using redis registry store")
	case "file", "":
		fs, err := filestore.New(cfg.Registry.File)
		if err != nil {
			return nil, fmt.Errorf("failed to init file registry store: %w", err)
		}
		store = fs
		log.Info("using file registry store", "path", cfg.Registry.File.Path)
	default:
		return nil, fmt.Errorf("unknown registry backend %q", cfg.Registry.Backend)
	}

	reg, err := registry.New(ctx, store, log)
	if err != nil {
		return nil, err
	}
	s.Registry = reg

	// 2. Remote API, retry engine, fetcher
	s.API = statapi.NewClient(cfg.API)
	s.Engine = retry.NewEngine(retry.Config{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay,
		MaxDelay:   cfg.Retry.MaxDelay,
	}, log)
	fetcher := fetch.New(s.API, s.Engine, log)

	// 3. Storage loader
	loader, err := s3store.NewLoader(cfg.S3, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init s3 loader: %w", err)
	}

	// 4. Optional metadata catalog
	var sink ingest.MetadataSink
	if cfg.Catalog.URL != "" {
		cat, err := catalog.New(ctx, cfg.Catalog, log)
		if err != nil {
			return nil, fmt.Errorf("failed to init metadata catalog: %w", err)
		}
		s.catalogSink = cat
		sink = cat
		log.Info("metadata catalog enabled")
	}

	// 5. Orchestrator
	s.Mapper = mapper.New(log)
	s.Orchestrator = orchestrator.New(reg, fetcher, s.Mapper, loader, sink, s.Engine,
		orchestrator.Config{
			Fetch: fetch.Config{
				PageSize:       cfg.Fetch.PageSize,
				MaxRecords:     cfg.Fetch.MaxRecords,
				MaxConcurrency: cfg.Fetch.MaxConcurrency,
			},
		}, log)

	return s, nil
}

// StartStatusServer serves /health, /summary and /metrics until Stop.
func (s *Service) StartStatusServer() {
	s.healthServer = health.NewServer(s.cfg.Server.Port, s.Orchestrator.GetSummary, s.Engine.Summary)
	go func() {
		s.log.Info("status server listening", "port", s.cfg.Server.Port)
		if err := s.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("status server stopped", "error", err)
		}
	}()
}

// Stop shuts down background servers and closes connections.
func (s *Service) Stop(ctx context.Context) error {
	if s.healthServer != nil {
		if err := s.healthServer.Stop(ctx); err != nil {
			return err
		}
	}
	if s.catalogSink != nil {
		if err := s.catalogSink.Close(); err != nil {
			return err
		}
	}
	if s.redisStore != nil {
		if err := s.redisStore.Close(); err != nil {
			return err
		}
	}
	return nil
}
