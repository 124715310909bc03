package tui

import (
	"os"

	"golang.org/x/term"
)

// OutputMode represents how results are shown on stdout.
type OutputMode int

const (
	// ModeRich renders markdown with glamour and styled progress.
	ModeRich OutputMode = iota

	// ModePlain prints raw markdown and uncoloured progress.
	ModePlain

	// ModeJSON emits structured output.
	ModeJSON

	// ModeQuiet suppresses progress output.
	ModeQuiet
)

// String returns the string representation of the output mode.
func (m OutputMode) String() string {
	switch m {
	case ModeRich:
		return "rich"
	case ModePlain:
		return "plain"
	case ModeJSON:
		return "json"
	case ModeQuiet:
		return "quiet"
	default:
		return "unknown"
	}
}

// Detector determines the appropriate output mode.
type Detector struct {
	forceMode *OutputMode
	noColor   bool
	getenv    func(string) string
	isTTY     func() bool
}

// NewDetector creates a detector for stdout.
func NewDetector() *Detector {
	return &Detector{
		getenv: os.Getenv,
		isTTY:  func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
	}
}

// ForceMode forces a specific output mode.
func (d *Detector) ForceMode(mode OutputMode) *Detector {
	d.forceMode = &mode
	return d
}

// NoColor disables color output.
func (d *Detector) NoColor(disable bool) *Detector {
	d.noColor = disable
	return d
}

// WithEnv replaces environment lookups.
func (d *Detector) WithEnv(getenv func(string) string) *Detector {
	d.getenv = getenv
	return d
}

// WithTTY replaces the terminal check.
func (d *Detector) WithTTY(isTTY func() bool) *Detector {
	d.isTTY = isTTY
	return d
}

// Detect determines the appropriate output mode.
func (d *Detector) Detect() OutputMode {
	if d.forceMode != nil {
		return *d.forceMode
	}

	switch d.getenv("SRIP_OUTPUT") {
	case "json":
		return ModeJSON
	case "plain":
		return ModePlain
	}
	if d.getenv("SRIP_QUIET") == "1" {
		return ModeQuiet
	}
	if d.getenv("CI") != "" || d.getenv("GITHUB_ACTIONS") != "" {
		return ModePlain
	}
	if !d.isTTY() {
		return ModePlain
	}
	return ModeRich
}

// ShouldUseColor determines if color should be used.
func (d *Detector) ShouldUseColor() bool {
	if d.noColor {
		return false
	}
	if d.getenv("NO_COLOR") != "" {
		return false
	}
	if d.getenv("TERM") == "dumb" {
		return false
	}
	return d.isTTY()
}

// TerminalWidth returns the stdout width, or fallback when it is unknown.
func TerminalWidth(fallback int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// ParseOutputMode parses an output mode from string. Unknown values
// select ModeRich and leave detection to the caller.
func ParseOutputMode(s string) (OutputMode, bool) {
	switch s {
	case "rich":
		return ModeRich, true
	case "plain":
		return ModePlain, true
	case "json":
		return ModeJSON, true
	case "quiet":
		return ModeQuiet, true
	default:
		return ModeRich, false
	}
}
