// Package orchestrator sequences fetch, mapping, quality checks, storage
// load and registry bookkeeping into one pipeline run per dataset.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/datalakehq/statingest/internal/core/domain"
	"github.com/datalakehq/statingest/internal/ingest"
	"github.com/datalakehq/statingest/internal/ingest/fetch"
	"github.com/datalakehq/statingest/internal/ingest/metrics"
	"github.com/datalakehq/statingest/internal/ingest/quality"
	"github.com/datalakehq/statingest/internal/ingest/retry"
	"github.com/datalakehq/statingest/internal/registry"
)

// Stage names one step of a pipeline run.
type Stage string

const (
	StageFetching     Stage = "fetching"
	StageTransforming Stage = "transforming"
	StageValidating   Stage = "validating"
	StageLoading      Stage = "loading"
	StageRegistering  Stage = "registering"
)

// Result is the outcome of one dataset pipeline run.
type Result struct {
	DatasetID          string               `json:"dataset_id"`
	RunID              string               `json:"run_id"`
	Status             domain.DatasetStatus `json:"status"`
	FailedStage        Stage                `json:"failed_stage,omitempty"`
	Error              string               `json:"error,omitempty"`
	RecordsFetched     int                  `json:"records_fetched"`
	RecordsMapped      int                  `json:"records_mapped"`
	RecordsQuarantined int                  `json:"records_quarantined"`
	RecordsLoaded      int                  `json:"records_loaded"`
	PagesFailed        int                  `json:"pages_failed"`
	ElapsedSeconds     float64              `json:"elapsed_seconds"`
	StorageLocations   []string             `json:"storage_locations,omitempty"`
}

// Config tunes a pipeline run.
type Config struct {
	Fetch      fetch.Config
	KeyColumns []string // columns used for null and duplicate checks
	ValueMin   *float64 // optional observation value bounds, advisory
	ValueMax   *float64
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	Fetch:      fetch.DefaultConfig,
	KeyColumns: []string{"region", "year"},
}

// Orchestrator runs dataset pipelines sequentially, one at a time. Bounded
// concurrency lives inside the fetcher; running two full pipelines at once
// would blur status transitions and error attribution.
type Orchestrator struct {
	registry *registry.Registry
	fetcher  *fetch.Fetcher
	mapper   ingest.FieldMapper
	loader   ingest.StorageLoader
	sink     ingest.MetadataSink // optional
	engine   *retry.Engine
	cfg      Config
	log      *slog.Logger
}

// New creates an Orchestrator. sink may be nil.
func New(
	reg *registry.Registry,
	fetcher *fetch.Fetcher,
	mapper ingest.FieldMapper,
	loader ingest.StorageLoader,
	sink ingest.MetadataSink,
	engine *retry.Engine,
	cfg Config,
	log *slog.Logger,
) *Orchestrator {
	if cfg.Fetch.PageSize == 0 {
		cfg.Fetch = DefaultConfig.Fetch
	}
	if len(cfg.KeyColumns) == 0 {
		cfg.KeyColumns = DefaultConfig.KeyColumns
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		registry: reg,
		fetcher:  fetcher,
		mapper:   mapper,
		loader:   loader,
		sink:     sink,
		engine:   engine,
		cfg:      cfg,
		log:      log,
	}
}

// IngestDataset runs the full pipeline for one dataset. Fetch and load
// failures are terminal for the run; per-record mapping and validation
// failures drop the record and continue.
func (o *Orchestrator) IngestDataset(ctx context.Context, id string, dom domain.Domain, filters map[string][]string) Result {
	start := time.Now()
	result := Result{
		DatasetID: id,
		RunID:     uuid.New().String(),
	}
	log := o.log.With("dataset", id, "run", result.RunID, "domain", dom)
	log.Info("pipeline run starting")

	// Fetching
	fetched, err := o.runFetch(ctx, id, filters)
	if err != nil {
		return o.fail(ctx, log, result, StageFetching, err, start)
	}
	result.RecordsFetched = len(fetched.Records)
	result.PagesFailed = fetched.PagesFailed

	// Transforming: per-record errors are logged and the record dropped.
	mapped := make([]domain.CanonicalRecord, 0, len(fetched.Records))
	dropped := 0
	for _, raw := range fetched.Records {
		rec, err := o.mapper.Map(raw, dom, id)
		if err != nil {
			dropped++
			log.Debug("dropping unmappable record", "error", err)
			continue
		}
		mapped = append(mapped, rec)
	}
	result.RecordsMapped = len(mapped)
	if dropped > 0 {
		metrics.RecordsDropped.WithLabelValues(id, "mapping").Add(float64(dropped))
		log.Warn("dropped unmappable records", "dropped", dropped)
	}

	// Validating: reports are advisory, quarantine is not.
	if cols := quality.ValidateRequiredColumns(mapped, o.cfg.KeyColumns); !cols.Valid {
		log.Warn("key columns missing from mapped records", "missing", cols.Missing)
	}
	if nulls := quality.CheckNulls(mapped, o.cfg.KeyColumns); nulls.HasNulls {
		log.Warn("null key values detected", "counts", nulls.Counts)
	}
	if dups := quality.DetectDuplicates(mapped, o.cfg.KeyColumns); dups.HasDuplicates {
		log.Warn("duplicate keys detected",
			"groups", dups.DuplicateCount, "records", dups.TotalDuplicateRecords)
	}
	if o.cfg.ValueMin != nil || o.cfg.ValueMax != nil {
		if rng := quality.ValidateRanges(mapped, "value", o.cfg.ValueMin, o.cfg.ValueMax); !rng.Valid {
			log.Warn("observation values out of range", "violations", rng.ViolationCount)
		}
	}
	valid, invalid := quality.Quarantine(mapped, o.recordValidator())
	result.RecordsQuarantined = len(invalid)
	if len(invalid) > 0 {
		metrics.RecordsDropped.WithLabelValues(id, "quarantined").Add(float64(len(invalid)))
		log.Warn("quarantined records", "count", len(invalid), "first_reason", invalid[0].Reason)
	}

	// Loading
	table := dom.TableName()
	var loaded ingest.LoadResult
	err = o.engine.Execute(ctx, "load "+table, func(ctx context.Context) error {
		var err error
		loaded, err = o.loader.Load(ctx, table, valid)
		return err
	})
	if err != nil {
		return o.fail(ctx, log, result, StageLoading, err, start)
	}
	result.RecordsLoaded = loaded.RecordsLoaded
	if loaded.Location != "" {
		result.StorageLocations = append(result.StorageLocations, loaded.Location)
	}
	metrics.RecordsLoaded.WithLabelValues(table).Add(float64(loaded.RecordsLoaded))

	// Registering: best-effort, never fails the run.
	if o.sink != nil {
		meta := ingest.DatasetMeta{
			DatasetID:        id,
			Domain:           dom,
			RecordsLoaded:    result.RecordsLoaded,
			StorageLocations: result.StorageLocations,
			IngestedAt:       time.Now(),
		}
		if d := o.registry.Get(id); d != nil {
			meta.Name = d.Name
		}
		if err := o.sink.Register(ctx, meta); err != nil {
			log.Warn("metadata registration failed", "error", err)
		}
	}

	result.Status = domain.StatusCompleted
	result.ElapsedSeconds = time.Since(start).Seconds()
	metrics.DatasetsIngested.WithLabelValues(string(dom), string(result.Status)).Inc()
	metrics.IngestDuration.WithLabelValues(string(dom)).Observe(result.ElapsedSeconds)

	log.Info("pipeline run completed",
		"records_loaded", result.RecordsLoaded,
		"quarantined", result.RecordsQuarantined,
		"elapsed", result.ElapsedSeconds)
	return result
}

func (o *Orchestrator) runFetch(ctx context.Context, id string, filters map[string][]string) (domain.FetchResult, error) {
	if len(filters) == 0 {
		return o.fetcher.FetchParallel(ctx, id, o.cfg.Fetch)
	}
	dimension, values, ok := fetch.PickCategoryDimension(filters)
	if !ok {
		return domain.FetchResult{}, fmt.Errorf("no usable filter dimension for dataset %s", id)
	}
	return o.fetcher.FetchByCategory(ctx, id, dimension, values, true, o.cfg.Fetch.MaxConcurrency)
}

// recordValidator rejects records whose observation value is missing or null.
func (o *Orchestrator) recordValidator() quality.Validator {
	return func(batch []domain.CanonicalRecord) error {
		v, ok := batch[0].Get("value")
		if !ok || v.IsNull() {
			return fmt.Errorf("validation failed: missing observation value")
		}
		return nil
	}
}

func (o *Orchestrator) fail(ctx context.Context, log *slog.Logger, result Result, stage Stage, err error, start time.Time) Result {
	result.Status = domain.StatusFailed
	result.FailedStage = stage
	result.Error = err.Error()
	result.ElapsedSeconds = time.Since(start).Seconds()
	metrics.DatasetsIngested.WithLabelValues("", string(result.Status)).Inc()

	if o.sink != nil {
		if serr := o.sink.UpdateStatus(ctx, result.DatasetID, domain.StatusFailed, result.Error); serr != nil {
			log.Warn("metadata status update failed", "error", serr)
		}
	}

	log.Error("pipeline run failed", "stage", stage, "error", err)
	return result
}
