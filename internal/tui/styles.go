package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

var (
	// HeaderStyle is the style for the run banner.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// BoxStyle frames the final status line.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	RunningStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	CompletedStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarnStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	FailedStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// StatusStyle returns the style of a completion status.
func StatusStyle(s core.CompletionStatus) lipgloss.Style {
	switch s {
	case core.StatusComplete:
		return CompletedStyle
	case core.StatusPartialFailure:
		return WarnStyle
	default:
		return FailedStyle
	}
}

// ConfidenceStyle colours a confidence value against the delivery
// threshold.
func ConfidenceStyle(conf, threshold float64) lipgloss.Style {
	switch {
	case conf > 0.6:
		return CompletedStyle
	case conf > threshold:
		return WarnStyle
	default:
		return FailedStyle
	}
}
