package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/datalakehq/statingest/internal/control"
	"github.com/datalakehq/statingest/internal/core/domain"
)

var ingestDomain string

var ingestCmd = &cobra.Command{
	Use:   "ingest [dataset_id]",
	Short: "Ingest a single dataset immediately, bypassing the registry queue",
	Args:  cobra.ExactArgs(1),
	Run:   runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDomain, "domain", "", "override the dataset domain (population, economy, labour, environment, generic)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	id := args[0]

	ctx := context.Background()
	app, err := control.NewService(ctx, cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to initialize service", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = app.Stop(ctx)
	}()

	dom := resolveDomain(ctx, app, id)
	result := app.Orchestrator.IngestDataset(ctx, id, dom, nil)

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if result.Status != domain.StatusCompleted {
		os.Exit(1)
	}
}

// resolveDomain prefers the flag, then the registry entry, then a title
// inference from the remote metadata. A dataset we know nothing about
// still ingests, into the generic table.
func resolveDomain(ctx context.Context, app *control.Service, id string) domain.Domain {
	if ingestDomain != "" {
		return domain.ParseDomain(ingestDomain)
	}
	if ds := app.Registry.Get(id); ds != nil {
		return ds.Domain
	}
	meta, err := app.API.Meta(ctx, id)
	if err != nil {
		slog.Warn("Could not fetch metadata for domain inference", "dataset", id, "error", err)
		return domain.DomainGeneric
	}
	return app.Mapper.InferDomain(meta.Title)
}
