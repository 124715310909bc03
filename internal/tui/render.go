package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

// DefaultWordWrap is used when the terminal width is unknown.
const DefaultWordWrap = 100

// Renderer renders report markdown for the terminal.
type Renderer struct {
	tr *glamour.TermRenderer
}

// NewRenderer creates a renderer wrapping at width columns. Without color
// the ASCII style is used so output stays readable in logs and pipes.
func NewRenderer(width int, color bool) (*Renderer, error) {
	if width <= 0 {
		width = DefaultWordWrap
	}
	style := styles.NoTTYStyle
	if color {
		style = styles.DarkStyle
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	return &Renderer{tr: tr}, nil
}

// Render returns md formatted for display.
func (r *Renderer) Render(md string) (string, error) {
	out, err := r.tr.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}
