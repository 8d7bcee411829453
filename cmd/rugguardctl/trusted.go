package main

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/Derecoder4/Rugguard-bot/internal/adapter/postgres"
	"github.com/Derecoder4/Rugguard-bot/internal/trustlist"
)

const defaultTrustedListURL = "https://raw.githubusercontent.com/devsyrem/turst-list/main/list"

func newTrustedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trusted",
		Short: "Inspect and refresh the trusted-account list",
	}
	cmd.AddCommand(newTrustedListCommand(), newTrustedRefreshCommand())
	return cmd
}

func newTrustedListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the stored trusted handles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := connect(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := postgres.NewTrustedRepo(pool)
			handles, err := repo.List(cmd.Context())
			if err != nil {
				return err
			}
			refreshedAt, err := repo.LastRefreshed(cmd.Context())
			if err != nil {
				return err
			}

			for _, handle := range handles {
				fmt.Println(handle)
			}
			if !refreshedAt.IsZero() {
				fmt.Printf("\n%d handles, refreshed %s\n", len(handles), refreshedAt.Format(time.RFC3339))
			} else {
				fmt.Printf("\n%d handles, never refreshed\n", len(handles))
			}
			return nil
		},
	}
}

func newTrustedRefreshCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the trusted list and replace the stored set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := cmd.Flags().GetString("url")
			if err != nil {
				return err
			}

			pool, err := connect(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()

			cache := trustlist.NewCache(
				trustlist.NewHTTPFetcher(url),
				postgres.NewTrustedRepo(pool),
				trustlist.DefaultTTL,
				clockwork.NewRealClock())

			if err := cache.Refresh(cmd.Context()); err != nil {
				return err
			}

			fmt.Printf("Trusted list refreshed, %d handles stored\n", cache.Snapshot(cmd.Context()).Len())
			return nil
		},
	}
	cmd.Flags().String("url", defaultTrustedListURL, "trusted list source URL")
	return cmd
}
