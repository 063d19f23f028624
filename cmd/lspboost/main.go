package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexcodex/lspboost/booster"
	"github.com/lexcodex/lspboost/config"
)

var (
	flagWorkspace string
	flagConfig    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lspboost",
		Short: "Wrap language servers with the lsp-booster transport accelerator",
	}
	root.PersistentFlags().StringVar(&flagWorkspace, "workspace", ".", "Workspace root")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default <workspace>/.lspboost/config.yaml)")

	root.AddCommand(newRewriteCmd(), newStatusCmd(), newProbeCmd(), newSessionsCmd(), newMonitorCmd())
	return root
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.Path(flagWorkspace)
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath())
}

func newLogger(cfg *config.Config) (*log.Logger, func(), error) {
	if cfg.LogFile == "" {
		return log.New(os.Stderr, "lspboost ", log.LstdFlags), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return log.New(f, "lspboost ", log.LstdFlags), func() { _ = f.Close() }, nil
}

// buildFeature assembles the feature from the workspace config and, when the
// config enables it, activates it. The activation error is returned alongside
// the feature so callers can decide whether a missing booster is fatal.
func buildFeature(cfg *config.Config, logger *log.Logger) (*booster.Feature, error) {
	feature := booster.NewFeature(cfg.Options(), logger)
	if !cfg.Enabled {
		return feature, nil
	}
	if err := feature.Activate(); err != nil {
		return feature, err
	}
	return feature, nil
}

func newRewriteCmd() *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "rewrite -- <server command...>",
		Short: "Print the argv the booster integration would spawn",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("server command required after --")
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
				return err
			}
			argv := feature.RewriteCommand(args, remote)
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(argv, " "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Treat the target workspace as remote")
	return cmd
}
