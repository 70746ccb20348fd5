// Package tui provides Bubble Tea views for the hessian CLI.
//
// TUI mode is opt-in (--tui) and read-only. Every view also has a static
// rendering, and the TUI never shows data the other formats lack.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/hessian/hessian"
	"github.com/justapithecus/hessian/types"
)

var (
	accent = lipgloss.Color("#7C3AED")
	good   = lipgloss.Color("#10B981")
	warn   = lipgloss.Color("#F59E0B")
	bad    = lipgloss.Color("#EF4444")
	muted  = lipgloss.Color("#6B7280")
	info   = lipgloss.Color("#3B82F6")
	text   = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(muted)
	valueStyle  = lipgloss.NewStyle().Foreground(text)
	helpStyle   = lipgloss.NewStyle().Foreground(muted).MarginTop(1)
	cursorStyle = lipgloss.NewStyle().Reverse(true)

	// Summary counters: a bordered tile per number.
	tileStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2).Width(20).Align(lipgloss.Center)
	tileValueStyle = lipgloss.NewStyle().Bold(true).Align(lipgloss.Center)
	tileLabelStyle = lipgloss.NewStyle().Foreground(muted).Align(lipgloss.Center)
)

var outcomeColors = map[types.OutcomeStatus]lipgloss.Color{
	types.OutcomeCompleted:     good,
	types.OutcomeTruncated:     warn,
	types.OutcomeCanceled:      warn,
	types.OutcomeCorrupt:       bad,
	types.OutcomePolicyFailure: bad,
}

// outcomeStyle colors a session outcome.
func outcomeStyle(status types.OutcomeStatus) lipgloss.Style {
	if c, ok := outcomeColors[status]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return valueStyle
}

var kindColors = map[hessian.Kind]lipgloss.Color{
	hessian.KindString: good,
	hessian.KindXML:    good,
	hessian.KindInt:    info,
	hessian.KindLong:   info,
	hessian.KindDouble: info,
	hessian.KindDate:   info,
	hessian.KindBool:   info,
	hessian.KindRef:    muted,
	hessian.KindNull:   muted,
	hessian.KindFault:  bad,
}

// kindStyle colors a tree value by its hessian kind. Composites and
// envelopes share the accent color.
func kindStyle(kind string) lipgloss.Style {
	if kind == "" {
		return valueStyle
	}
	if c, ok := kindColors[hessian.Kind(kind)]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle().Foreground(accent)
}
