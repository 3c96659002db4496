// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hearthwire/otgw/pkg/otgw"
)

var monitorConnectTimeout time.Duration

// Messages
type snapshotMsg otgw.Snapshot
type monitorTickMsg time.Time

// Monitor TUI model
type monitorModel struct {
	address    string
	tbl        table.Model
	snapshot   otgw.Snapshot
	updates    int
	lastUpdate time.Time
	width      int
	height     int
	quitting   bool
}

var monitorPartitions = []otgw.Source{
	otgw.SourceBoiler,
	otgw.SourceThermostat,
	otgw.SourceGateway,
}

func initialMonitorModel(address string, snap otgw.Snapshot) monitorModel {
	columns := []table.Column{
		{Title: "Partition", Width: 12},
		{Title: "Field", Width: 32},
		{Title: "Value", Width: 24},
	}
	tbl := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Bold(true).
		Foreground(lipgloss.Color("12")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	tbl.SetStyles(styles)

	m := monitorModel{
		address:  address,
		tbl:      tbl,
		snapshot: snap,
		width:    80,
		height:   24,
	}
	m.rebuildRows()
	return m
}

// formatValue renders a decoded field for display.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case bool:
		if val {
			return "on"
		}
		return "off"
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (m *monitorModel) rebuildRows() {
	rows := []table.Row{}
	for _, part := range monitorPartitions {
		fields := m.snapshot[part]
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rows = append(rows, table.Row{string(part), name, formatValue(fields[name])})
		}
	}
	m.tbl.SetRows(rows)
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(monitorTickCmd(), tea.EnterAltScreen)
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tbl.SetHeight(m.height - 6)

	case monitorTickMsg:
		return m, monitorTickCmd()

	case snapshotMsg:
		m.snapshot = otgw.Snapshot(msg)
		m.updates++
		m.lastUpdate = time.Now()
		m.rebuildRows()
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	return m, cmd
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	var s strings.Builder
	s.WriteString(titleStyle.Render("OPENTHERM GATEWAY MONITOR"))
	s.WriteString("\n")

	last := "never"
	if !m.lastUpdate.IsZero() {
		last = m.lastUpdate.Format("15:04:05")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("Gateway: %s | Updates: %d | Last: %s | Press 'q' to quit",
		m.address, m.updates, last)))
	s.WriteString("\n\n")

	s.WriteString(m.tbl.View())
	s.WriteString("\n")
	return s.String()
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live status dashboard",
	Long: `Connects to the gateway and shows the decoded boiler, thermostat and
gateway state in a live terminal dashboard.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), monitorConnectTimeout)
		defer cancel()

		gw, err := connectGateway(ctx)
		if err != nil {
			return err
		}
		defer gw.Disconnect()

		m := initialMonitorModel(viper.GetString("address"), gw.Snapshot())
		p := tea.NewProgram(m, tea.WithAltScreen())

		gw.Subscribe(func(snap otgw.Snapshot) {
			p.Send(snapshotMsg(snap))
		})

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("monitor UI failed: %w", err)
		}
		return nil
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorConnectTimeout, "connect-timeout", 60*time.Second, "timeout for the initial connect")
	rootCmd.AddCommand(monitorCmd)
}
