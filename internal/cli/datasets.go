package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/datalakehq/statingest/internal/core/config"
	"github.com/datalakehq/statingest/internal/core/domain"
	"github.com/datalakehq/statingest/internal/infra/filestore"
	"github.com/datalakehq/statingest/internal/infra/redisstore"
	"github.com/datalakehq/statingest/internal/registry"
)

var (
	addPriority int
	addDomain   string
	addName     string
	listStatus  string
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage the dataset registry",
}

var datasetsAddCmd = &cobra.Command{
	Use:   "add [dataset_id]",
	Short: "Queue a dataset for ingestion",
	Args:  cobra.ExactArgs(1),
	Run:   runDatasetsAdd,
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered datasets",
	Run:   runDatasetsList,
}

var datasetsRemoveCmd = &cobra.Command{
	Use:   "remove [dataset_id]",
	Short: "Remove a dataset from the registry",
	Args:  cobra.ExactArgs(1),
	Run:   runDatasetsRemove,
}

var datasetsRequeueCmd = &cobra.Command{
	Use:   "requeue [dataset_id]",
	Short: "Reset a dataset back to pending so the next batch picks it up",
	Args:  cobra.ExactArgs(1),
	Run:   runDatasetsRequeue,
}

func init() {
	datasetsAddCmd.Flags().IntVar(&addPriority, "priority", domain.DefaultPriority, "ingestion priority (1-10)")
	datasetsAddCmd.Flags().StringVar(&addDomain, "domain", "generic", "statistical domain")
	datasetsAddCmd.Flags().StringVar(&addName, "name", "", "human readable dataset name")
	datasetsListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (pending, processing, completed, failed)")

	datasetsCmd.AddCommand(datasetsAddCmd, datasetsListCmd, datasetsRemoveCmd, datasetsRequeueCmd)
	rootCmd.AddCommand(datasetsCmd)
}

// openRegistry connects the configured registry store directly. Management
// commands do not need the API client or the lake loader.
func openRegistry(ctx context.Context, cfg config.AppConfig) *registry.Registry {
	var store registry.Store
	var err error
	switch cfg.Registry.Backend {
	case "redis":
		store, err = redisstore.New(cfg.Registry.Redis)
	default:
		store, err = filestore.New(cfg.Registry.File)
	}
	if err != nil {
		slog.Error("Failed to open registry store", "error", err)
		os.Exit(1)
	}

	reg, err := registry.New(ctx, store, slog.Default())
	if err != nil {
		slog.Error("Failed to load registry", "error", err)
		os.Exit(1)
	}
	return reg
}

func runDatasetsAdd(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()
	reg := openRegistry(ctx, cfg)

	added, err := reg.Add(ctx, args[0], addPriority, domain.ParseDomain(addDomain), addName)
	if err != nil {
		slog.Error("Failed to add dataset", "error", err)
		os.Exit(1)
	}
	if !added {
		fmt.Printf("Dataset %s is already registered\n", args[0])
		return
	}
	fmt.Printf("Queued dataset %s\n", args[0])
}

func runDatasetsList(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()
	reg := openRegistry(ctx, cfg)

	datasets := reg.List(domain.DatasetStatus(listStatus))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tDOMAIN\tPRIORITY\tSTATUS\tUPDATED")
	for _, ds := range datasets {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			ds.ID, ds.Name, ds.Domain, ds.Priority, ds.Status, ds.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	_ = w.Flush()
}

func runDatasetsRemove(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()
	reg := openRegistry(ctx, cfg)

	removed, err := reg.Remove(ctx, args[0])
	if err != nil {
		slog.Error("Failed to remove dataset", "error", err)
		os.Exit(1)
	}
	if !removed {
		fmt.Printf("Dataset %s is not registered\n", args[0])
		os.Exit(1)
	}
	fmt.Printf("Removed dataset %s\n", args[0])
}

func runDatasetsRequeue(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()
	reg := openRegistry(ctx, cfg)

	updated, err := reg.UpdateStatus(ctx, args[0], domain.StatusPending, "")
	if err != nil {
		slog.Error("Failed to requeue dataset", "error", err)
		os.Exit(1)
	}
	if !updated {
		fmt.Printf("Dataset %s is not registered\n", args[0])
		os.Exit(1)
	}
	fmt.Printf("Requeued dataset %s\n", args[0])
}
