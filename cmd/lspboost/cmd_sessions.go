package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexcodex/lspboost/persistence"
)

func openLedger() (*persistence.Ledger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return persistence.OpenLedger(cfg.LedgerPathOrDefault(flagWorkspace))
}

func newSessionsCmd() *cobra.Command {
	sessionsCmd := &cobra.Command{Use: "sessions", Short: "Inspect recorded booster sessions"}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()
			records, err := ledger.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, rec := range records {
				boosted := "plain"
				if rec.Boosted {
					boosted = "boosted(" + rec.Profile + ")"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tframes=%d binary=%d bytes=%d\t%s\n",
					rec.ID, rec.StartedAt.Format(time.RFC3339), boosted,
					rec.Frames, rec.BinaryFrames, rec.BytesRead, rec.Command)
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to list")

	var olderThan time.Duration
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete sessions older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			ledger, err := openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()
			n, err := ledger.Purge(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d sessions\n", n)
			return nil
		},
	}
	purgeCmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Age cutoff for purging")

	sessionsCmd.AddCommand(listCmd, purgeCmd)
	return sessionsCmd
}
