package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/hessian/types"
)

// summaryModel shows one stored session summary.
type summaryModel struct {
	summary  *types.SessionSummary
	err      string
	quitting bool
}

func newSummaryModel(data any) summaryModel {
	summary, ok := data.(*types.SessionSummary)
	if !ok || summary == nil {
		return summaryModel{err: fmt.Sprintf("Invalid data type for %s: %T", ViewStatsSession, data)}
	}
	return summaryModel{summary: summary}
}

func (m summaryModel) Init() tea.Cmd { return nil }

func (m summaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m summaryModel) View() string {
	if m.quitting {
		return ""
	}
	return m.body() + "\n" + helpStyle.Render("q quits")
}

func (m summaryModel) body() string {
	if m.err != "" {
		return m.err
	}
	s := m.summary

	var b strings.Builder
	b.WriteString(titleStyle.Render("Session " + s.SessionID))
	b.WriteString("\n")

	field := func(label, value string, style lipgloss.Style) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Width(12).Render(label), style.Render(value))
	}
	field("Source", s.Source, valueStyle)
	field("Scope", s.Scope, valueStyle)
	field("Outcome", string(s.Outcome), outcomeStyle(s.Outcome))
	field("Message", s.Message, valueStyle)
	field("Started", s.StartedAt, valueStyle)
	field("Duration", (time.Duration(s.DurationMs) * time.Millisecond).String(), valueStyle)
	b.WriteString("\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		tile("Messages", s.Messages, info),
		tile("Events", s.Events, good),
		tile("Bytes", s.Bytes, warn),
		tile("Definitions", int64(s.Definitions), accent),
	))
	return b.String()
}

func tile(label string, n int64, color lipgloss.Color) string {
	return tileStyle.BorderForeground(color).Render(lipgloss.JoinVertical(lipgloss.Center,
		tileValueStyle.Foreground(color).Render(fmt.Sprint(n)),
		tileLabelStyle.Render(label),
	))
}

func runSummary(_ string, data any) error {
	_, err := tea.NewProgram(newSummaryModel(data), tea.WithAltScreen()).Run()
	return err
}

func renderSummary(_ string, data any) string {
	return lipgloss.NewStyle().Padding(1, 2).Render(newSummaryModel(data).View())
}
