// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatasetsIngested counts finished pipeline runs by terminal status.
	DatasetsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statingest_datasets_ingested_total",
			Help: "Total number of dataset pipeline runs by terminal status",
		},
		[]string{"domain", "status"},
	)

	// RecordsLoaded counts records handed to the storage loader.
	RecordsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statingest_records_loaded_total",
			Help: "Total number of records loaded into the lake",
		},
		[]string{"table"},
	)

	// RecordsDropped counts records dropped during mapping or quarantined.
	RecordsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statingest_records_dropped_total",
			Help: "Total number of records dropped before load",
		},
		[]string{"dataset", "reason"},
	)

	// PagesFetched counts successfully fetched pages.
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statingest_pages_fetched_total",
			Help: "Total number of pages fetched successfully",
		},
		[]string{"dataset"},
	)

	// PagesFailed counts pages that exhausted retries.
	PagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statingest_pages_failed_total",
			Help: "Total number of pages that failed permanently",
		},
		[]string{"dataset"},
	)

	// IngestDuration tracks full pipeline run duration.
	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "statingest_ingest_duration_seconds",
			Help:    "Duration of dataset pipeline runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"domain"},
	)

	// RetryErrors counts classified failures seen by the retry engine.
	RetryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statingest_retry_errors_total",
			Help: "Total classified failures recorded by the retry engine",
		},
		[]string{"kind"},
	)

	// PendingDatasets gauges the current registry backlog.
	PendingDatasets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statingest_pending_datasets",
			Help: "Datasets currently pending ingestion",
		},
	)
)
