package orchestrator

import (
	"context"

	"github.com/datalakehq/statingest/internal/core/domain"
	"github.com/datalakehq/statingest/internal/ingest/metrics"
)

// IngestBatch pulls eligible datasets from the registry and runs their
// pipelines one after another. Each dataset is marked processing before its
// run and completed/failed after, independent of the rest of the batch.
// Datasets below priorityThreshold are skipped without a status change and
// do not count against batchSize; since the registry hands out work in
// priority order, the first below-threshold dataset ends the batch.
func (o *Orchestrator) IngestBatch(ctx context.Context, batchSize, priorityThreshold int) []Result {
	var results []Result

	for len(results) < batchSize {
		next := o.registry.NextEligible()
		if next == nil {
			o.log.Info("no eligible datasets remain", "processed", len(results))
			break
		}
		if next.Priority < priorityThreshold {
			o.log.Info("skipping below-threshold dataset",
				"dataset", next.ID, "priority", next.Priority, "threshold", priorityThreshold)
			break
		}

		if ok, err := o.registry.UpdateStatus(ctx, next.ID, domain.StatusProcessing, ""); err != nil || !ok {
			o.log.Error("failed to mark dataset processing", "dataset", next.ID, "error", err)
			break
		}

		result := o.IngestDataset(ctx, next.ID, next.Domain, nil)
		results = append(results, result)

		if _, err := o.registry.UpdateStatus(ctx, next.ID, result.Status, result.Error); err != nil {
			o.log.Error("failed to record terminal status", "dataset", next.ID, "error", err)
		}

		metrics.PendingDatasets.Set(float64(o.registry.Stats().ByStatus[domain.StatusPending]))

		if ctx.Err() != nil {
			break
		}
	}

	return results
}

// Summary counts datasets per lifecycle state.
type Summary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// GetSummary reports the registry's current state.
func (o *Orchestrator) GetSummary() Summary {
	stats := o.registry.Stats()
	return Summary{
		Total:      stats.Total,
		Pending:    stats.ByStatus[domain.StatusPending],
		Processing: stats.ByStatus[domain.StatusProcessing],
		Completed:  stats.ByStatus[domain.StatusCompleted],
		Failed:     stats.ByStatus[domain.StatusFailed],
	}
}
