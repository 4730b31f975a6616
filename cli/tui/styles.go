// Package tui renders the read-only utf8conv views (inspect, validate) as
// Bubble Tea programs.
//
// The TUI is opt-in (--tui) and consumes the same payloads as the json,
// table and yaml renderers.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#0EA5E9")
	colorGood   = lipgloss.Color("#22C55E")
	colorWarn   = lipgloss.Color("#EAB308")
	colorBad    = lipgloss.Color("#DC2626")
	colorDim    = lipgloss.Color("#71717A")
	colorText   = lipgloss.Color("#F4F4F5")
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	keyStyle     = lipgloss.NewStyle().Foreground(colorDim).Width(16)
	textStyle    = lipgloss.NewStyle().Foreground(colorText)
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(1, 2)
	tileStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			Width(16).
			Align(lipgloss.Center)
	pageStyle = lipgloss.NewStyle().Padding(1, 2)
)

// statusColor picks the color for an outcome status string.
func statusColor(status string) lipgloss.Color {
	switch status {
	case "success":
		return colorGood
	case "lossy", "canceled":
		return colorWarn
	case "invalid_input", "io_error":
		return colorBad
	}
	return colorText
}

// countColor is green for zero and red otherwise. Used for replacement and
// error counters.
func countColor(n int64) lipgloss.Color {
	if n == 0 {
		return colorGood
	}
	return colorBad
}
