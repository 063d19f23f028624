package main

import (
	"fmt"
	"os/exec"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lexcodex/lspboost/booster"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(16)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show booster configuration and availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("lspboost status"))
			fmt.Fprintf(out, "%s %s\n", keyStyle.Render("config"), configPath())
			fmt.Fprintf(out, "%s %v\n", keyStyle.Render("enabled"), cfg.Enabled)

			program := cfg.Program
			if program == "" {
				program = booster.ProgramName
			}
			if path, err := exec.LookPath(program); err == nil {
				fmt.Fprintf(out, "%s %s\n", keyStyle.Render("booster"), okStyle.Render(path))
			} else {
				fmt.Fprintf(out, "%s %s\n", keyStyle.Render("booster"),
					warnStyle.Render(fmt.Sprintf("%s not found on PATH", program)))
			}

			profile := "full"
			if cfg.IOOnly {
				profile = "io-only"
			}
			fmt.Fprintf(out, "%s %s\n", keyStyle.Render("profile"), profile)
			fmt.Fprintf(out, "%s %v\n", keyStyle.Render("no remote boost"), cfg.NoRemoteBoost)
			token := cfg.FalseToken
			if token == "" {
				token = booster.DefaultFalseToken
			}
			fmt.Fprintf(out, "%s %s\n", keyStyle.Render("false token"), token)
			fmt.Fprintf(out, "%s %s\n", keyStyle.Render("ledger"), cfg.LedgerPathOrDefault(flagWorkspace))
			return nil
		},
	}
}
