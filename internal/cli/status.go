package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/datalakehq/statingest/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current state of the dataset registry",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()
	reg := openRegistry(ctx, cfg)

	stats := reg.Stats()
	fmt.Printf("Registered datasets: %d\n\n", stats.Total)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "STATUS\tCOUNT")
	for _, st := range []domain.DatasetStatus{domain.StatusPending, domain.StatusProcessing, domain.StatusCompleted, domain.StatusFailed} {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", st, stats.ByStatus[st])
	}
	_ = w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "DOMAIN\tCOUNT")
	for _, d := range domain.Domains {
		if n := stats.ByDomain[d]; n > 0 {
			_, _ = fmt.Fprintf(w, "%s\t%d\n", d, n)
		}
	}
	_ = w.Flush()
}
