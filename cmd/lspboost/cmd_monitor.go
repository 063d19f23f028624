package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lexcodex/lspboost/persistence"
)

func newMonitorCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Live view over the session ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := openLedger()
			if err != nil {
				return err
			}
			defer ledger.Close()
			model := newMonitorModel(ledger, interval)
			program := tea.NewProgram(model, tea.WithContext(cmd.Context()))
			_, err = program.Run()
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Refresh interval")
	return cmd
}

var (
	monitorHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	boostedCellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	plainCellStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type sessionsMsg struct {
	records []persistence.SessionRecord
	err     error
}

type refreshMsg time.Time

type monitorModel struct {
	ledger   *persistence.Ledger
	interval time.Duration
	spinner  spinner.Model

	records []persistence.SessionRecord
	loadErr error
}

func newMonitorModel(ledger *persistence.Ledger, interval time.Duration) monitorModel {
	if interval <= 0 {
		interval = time.Second
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return monitorModel{ledger: ledger, interval: interval, spinner: sp}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch, m.schedule())
}

func (m monitorModel) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	records, err := m.ledger.Recent(ctx, 15)
	return sessionsMsg{records: records, err: err}
}

func (m monitorModel) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case refreshMsg:
		return m, tea.Batch(m.fetch, m.schedule())
	case sessionsMsg:
		m.records = msg.records
		m.loadErr = msg.err
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder
	b.WriteString(monitorHeaderStyle.Render("lspboost sessions"))
	b.WriteString(" " + m.spinner.View() + "\n\n")
	if m.loadErr != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("ledger error: %v", m.loadErr)) + "\n")
	}
	if len(m.records) == 0 {
		b.WriteString(plainCellStyle.Render("no sessions recorded yet") + "\n")
	}
	for _, rec := range m.records {
		mode := plainCellStyle.Render("plain  ")
		if rec.Boosted {
			mode = boostedCellStyle.Render("boosted")
		}
		ratio := "-"
		if rec.Frames > 0 {
			ratio = fmt.Sprintf("%d%%", rec.BinaryFrames*100/rec.Frames)
		}
		b.WriteString(fmt.Sprintf("%s  %s  %-6s  %6d frames  %5s binary  %8d bytes  %s\n",
			rec.StartedAt.Format("15:04:05"), mode, rec.Profile,
			rec.Frames, ratio, rec.BytesRead, truncate(rec.Command, 48)))
	}
	b.WriteString("\n" + plainCellStyle.Render("q to quit"))
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
