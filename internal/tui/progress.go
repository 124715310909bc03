package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/events"
)

// Progress prints pipeline events as they happen. It writes to stderr in
// the CLI so that stdout carries only the report.
type Progress struct {
	writer    io.Writer
	mode      OutputMode
	useColor  bool
	threshold float64
	enc       *json.Encoder
	mu        sync.Mutex
}

// NewProgress creates a progress printer for mode. threshold is the
// delivery confidence threshold used to colour scores.
func NewProgress(w io.Writer, mode OutputMode, useColor bool, threshold float64) *Progress {
	return &Progress{
		writer:    w,
		mode:      mode,
		useColor:  useColor && mode == ModeRich,
		threshold: threshold,
		enc:       json.NewEncoder(w),
	}
}

// Watch prints events from ch until it is closed or ctx is done.
func (p *Progress) Watch(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			p.Handle(e)
		}
	}
}

// Handle prints one event.
func (p *Progress) Handle(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.mode {
	case ModeQuiet:
		return
	case ModeJSON:
		_ = p.enc.Encode(e)
		return
	}

	switch ev := e.(type) {
	case events.RunStartedEvent:
		p.printf("%s %s\n", p.style(HeaderStyle, "▶ Analyzing:"), ev.Query)
		if len(ev.Targets) > 0 {
			p.printf("  %s %s\n", p.style(MutedStyle, "Targets:"), strings.Join(ev.Targets, ", "))
		}

	case events.StageStartedEvent:
		if ev.Agent == "" {
			p.printf("%s %s\n", p.style(RunningStyle, "●"), "Assembling report")
			return
		}
		p.printf("%s %s\n", p.style(RunningStyle, "●"), core.Role(ev.Agent).Title())

	case events.AgentRetryEvent:
		title := core.Role(ev.Agent).Title()
		if ev.Escalate {
			p.printf("  %s %s: abandoning %s after attempt %d (%s)\n",
				p.style(WarnStyle, "↷"), title, ev.Model, ev.Attempt, ev.Category)
			return
		}
		p.printf("  %s %s: %s attempt %d failed (%s), retrying in %s\n",
			p.style(WarnStyle, "↻"), title, ev.Model, ev.Attempt, ev.Category, ev.Delay.Round(time.Millisecond))

	case events.AgentFallbackEvent:
		p.printf("  %s %s\n", p.style(MutedStyle, "reason:"), ev.Reason)

	case events.StageCompletedEvent:
		title := core.Role(ev.Agent).Title()
		if ev.Fallback {
			p.printf("%s %s unavailable after %d attempts\n", p.style(FailedStyle, "✗"), title, ev.Attempts)
			return
		}
		conf := fmt.Sprintf("%.0f%%", ev.Confidence*100)
		p.printf("%s %s  %s attempts=%d confidence=%s (%s)\n",
			p.style(CompletedStyle, "✓"), title, ev.Model, ev.Attempts,
			p.style(ConfidenceStyle(ev.Confidence, p.threshold), conf), ev.Duration.Round(time.Millisecond))

	case events.RunCompletedEvent:
		status := core.CompletionStatus(ev.Status)
		p.printf("%s %s  confidence=%.0f%% fallbacks=%d (%s)\n",
			p.style(StatusStyle(status), "■ "+status.Label()),
			p.style(MutedStyle, "run "+ev.RunID()),
			ev.AggregateConfidence*100, ev.Fallbacks, ev.Duration.Round(time.Millisecond))
	}
}

// Status prints the final status message, boxed in rich mode.
func (p *Progress) Status(message string, status core.CompletionStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.mode {
	case ModeQuiet, ModeJSON:
		return
	case ModeRich:
		if p.useColor {
			p.printf("%s\n", BoxStyle.BorderForeground(StatusStyle(status).GetForeground()).Render(message))
			return
		}
	}
	p.printf("%s\n", message)
}

func (p *Progress) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.writer, format, args...)
}

func (p *Progress) style(s lipgloss.Style, text string) string {
	if !p.useColor {
		return text
	}
	return s.Render(text)
}
