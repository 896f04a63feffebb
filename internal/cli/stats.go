package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server operation metrics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	stats, err := gqlClient.Stats(ctx)
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}

	fmt.Printf("Uptime: %.0fs\n", stats.UptimeSeconds)
	if len(stats.Operations) == 0 {
		fmt.Println("No operations recorded yet.")
		return nil
	}

	fmt.Printf("\nOperations (%d):\n\n", len(stats.Operations))
	for _, op := range stats.Operations {
		fmt.Printf("- %-24s count=%d avg=%.1fms min=%dms max=%dms\n",
			op.Name, op.Count, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	}
	return nil
}
