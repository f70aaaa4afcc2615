package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/datalakehq/statingest/internal/control"
	"github.com/datalakehq/statingest/internal/core/domain"
	"github.com/datalakehq/statingest/internal/ingest/orchestrator"
)

var runInterval time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run batch ingestion over the pending datasets",
	Long:  `Run drains the registry in priority order, ingesting up to the configured batch size per pass. With --interval it keeps running passes until interrupted.`,
	Run:   runBatch,
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "re-run interval (0 runs a single pass)")
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("Received signal, shutting down...", "signal", sig)
		cancel()
	}()

	app, err := control.NewService(ctx, cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to initialize service", "error", err)
		os.Exit(1)
	}
	app.StartStatusServer()

	slog.Info("Statingest started", "config", cfgPath, "batch_size", cfg.Batch.Size)

	for {
		results := app.Orchestrator.IngestBatch(ctx, cfg.Batch.Size, cfg.Batch.PriorityThreshold)
		logResults(results)

		if runInterval <= 0 {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(runInterval):
		}
		if ctx.Err() != nil {
			break
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}

func logResults(results []orchestrator.Result) {
	completed, failed := 0, 0
	for _, r := range results {
		if r.Status == domain.StatusCompleted {
			completed++
		} else {
			failed++
		}
	}
	slog.Info("Batch pass finished", "processed", len(results), "completed", completed, "failed", failed)
}
