package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexcodex/lspboost/persistence"
	"github.com/lexcodex/lspboost/session"
)

func newProbeCmd() *cobra.Command {
	var root string
	var language string
	var file string
	var plain bool
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Run a boosted session against a language server and sample its responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, ok := session.Lookup(language)
			if !ok {
				return fmt.Errorf("unsupported language %s (known: %v)", language, session.Languages())
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			feature, err := buildFeature(cfg, logger)
			if err != nil {
				// Probing still works without the booster; say so and go on
				// unboosted so the comparison is possible.
				fmt.Fprintf(cmd.ErrOrStderr(), "booster unavailable, probing unboosted: %v\n", err)
			}
			if plain {
				feature.Deactivate()
			}

			ledger, err := persistence.OpenLedger(cfg.LedgerPathOrDefault(flagWorkspace))
			if err != nil {
				return err
			}
			defer ledger.Close()

			client, err := desc.NewClient(root, feature, ledger, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "session %s boosted=%v\n", client.ID(), client.Boosted())

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if file != "" {
				diags, err := client.Diagnostics(ctx, file)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "diagnostics error: %v\n", err)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "diagnostics: %v\n", diags)
				}
			}
			symbols, err := client.SearchSymbols(ctx, "")
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "workspace/symbol error: %v\n", err)
			} else if len(symbols) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "symbol sample: %v\n", symbols[:min(5, len(symbols))])
			}

			stats := client.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "frames=%d binary=%d bytes=%d\n",
				stats.Frames, stats.BinaryFrames, stats.BytesRead)
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", flagWorkspace, "Workspace root for the language server")
	cmd.Flags().StringVar(&language, "lang", "go", "Language server to probe")
	cmd.Flags().StringVar(&file, "file", "", "Optional file to request diagnostics for")
	cmd.Flags().BoolVar(&plain, "plain", false, "Force an unboosted session for comparison")
	return cmd
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
