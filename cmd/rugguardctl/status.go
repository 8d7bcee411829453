package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Derecoder4/Rugguard-bot/internal/adapter/postgres"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show ledger and analysis counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := connect(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx := cmd.Context()
			events := postgres.NewEventRepo(pool)
			analyses := postgres.NewAnalysisRepo(pool)
			trusted := postgres.NewTrustedRepo(pool)

			totalEvents, err := events.Count(ctx)
			if err != nil {
				return err
			}
			recentEvents, err := events.CountSince(ctx, 24*time.Hour)
			if err != nil {
				return err
			}
			totalAnalyses, err := analyses.Count(ctx)
			if err != nil {
				return err
			}
			recentAnalyses, err := analyses.CountSince(ctx, 24*time.Hour)
			if err != nil {
				return err
			}
			trustedCount, err := trusted.Count(ctx)
			if err != nil {
				return err
			}
			lastProcessed, hasActivity, err := events.LastProcessedAt(ctx)
			if err != nil {
				return err
			}

			fmt.Println("Rugguard status")
			fmt.Printf("  Events processed:   %d total, %d in 24h\n", totalEvents, recentEvents)
			fmt.Printf("  Analyses stored:    %d total, %d in 24h\n", totalAnalyses, recentAnalyses)
			fmt.Printf("  Trusted accounts:   %d\n", trustedCount)
			if hasActivity {
				fmt.Printf("  Last processed:     %s (%s ago)\n",
					lastProcessed.Format(time.RFC3339), time.Since(lastProcessed).Round(time.Second))
			} else {
				fmt.Println("  Last processed:     never")
			}
			return nil
		},
	}
}
