// rugguardctl is the operator CLI: it inspects the processing ledger and
// manages the trusted-account list directly against the database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/Derecoder4/Rugguard-bot/internal/adapter/postgres"
	"github.com/Derecoder4/Rugguard-bot/internal/platform/version"
)

func main() {
	root := &cobra.Command{
		Use:           "rugguardctl",
		Short:         "Operator tooling for the rugguard trust-scoring bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")

	root.AddCommand(
		newStatusCommand(),
		newTrustedCommand(),
		newVersionCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect opens a pool from the --database-url flag (or DATABASE_URL).
func connect(cmd *cobra.Command) (*pgxpool.Pool, error) {
	url, err := cmd.Flags().GetString("database-url")
	if err != nil {
		return nil, err
	}
	if url == "" {
		return nil, fmt.Errorf("no database URL given, set --database-url or DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	return postgres.Connect(ctx, url)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			fmt.Printf("rugguardctl %s (commit %s, built %s)\n", info.Version, info.Commit, info.BuildTime)
		},
	}
}
