package report

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// ReportTitle heads every rendered analysis.
const ReportTitle = "Strategic Research Intelligence Report"

// Readiness labels by aggregate confidence.
const (
	ReadinessExecutive = "Executive-Ready"
	ReadinessBusiness  = "Business-Standard"
	ReadinessDraft     = "Draft-Quality"
)

// Readiness returns the readiness label of an aggregate confidence.
func Readiness(confidence float64) string {
	switch {
	case confidence > 0.8:
		return ReadinessExecutive
	case confidence > 0.6:
		return ReadinessBusiness
	default:
		return ReadinessDraft
	}
}

// Options configures markdown rendering.
type Options struct {
	// IncludeMetrics appends the per-agent quality table.
	IncludeMetrics bool
	UseUTC         bool
}

// DefaultOptions returns the rendering defaults.
func DefaultOptions() Options {
	return Options{IncludeMetrics: true, UseUTC: false}
}

// countWords counts words in a string
func countWords(s string) int {
	return len(strings.Fields(s))
}

// sanitizeFilename removes or replaces characters unsuitable for filenames
func sanitizeFilename(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			result.WriteRune(r)
		} else if r == ' ' || r == '/' || r == ':' {
			result.WriteRune('-')
		}
	}
	return strings.ToLower(result.String())
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

// Percent formats a 0..1 confidence as a whole percentage.
func Percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// Markdown renders r as a markdown document: header block, the five
// sections in order and, when enabled, the quality metrics trailer.
func Markdown(r *core.Report, opts Options) string {
	var sb strings.Builder
	meta := r.Metadata

	generated := meta.GeneratedAt
	if opts.UseUTC {
		generated = generated.UTC()
	}
	focus := "Broad market analysis"
	if len(meta.Targets) > 0 {
		focus = strings.Join(meta.Targets, ", ")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", ReportTitle))
	sb.WriteString(fmt.Sprintf("**Analysis Date:** %s  \n", generated.Format("January 2, 2006 15:04 MST")))
	sb.WriteString(fmt.Sprintf("**Research Scope:** %s  \n", meta.Query))
	sb.WriteString(fmt.Sprintf("**Focus Entities:** %s  \n", focus))
	sb.WriteString(fmt.Sprintf("**Processing Time:** %s  \n", FormatDuration(meta.ElapsedMS)))
	sb.WriteString(fmt.Sprintf("**Analysis Quality:** %s (%s)\n\n", Percent(meta.AggregateConfidence), Readiness(meta.AggregateConfidence)))
	sb.WriteString("---\n\n")

	for _, s := range r.Sections() {
		sb.WriteString(fmt.Sprintf("## %s\n\n", s.Title))
		sb.WriteString(strings.TrimSpace(s.Body))
		sb.WriteString("\n\n")
	}

	if opts.IncludeMetrics {
		sb.WriteString("---\n\n")
		sb.WriteString(renderMetrics(meta))
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// renderMetrics renders the "Analysis Quality Metrics" trailer.
func renderMetrics(meta core.ReportMetadata) string {
	var sb strings.Builder

	sb.WriteString("## Analysis Quality Metrics\n\n")
	sb.WriteString("| Agent | Model | Confidence | Attempts | Time | Status |\n")
	sb.WriteString("|-------|-------|------------|----------|------|--------|\n")
	for _, a := range meta.Agents {
		model := a.Model
		if model == "" {
			model = "-"
		}
		status := "delivered"
		if a.Fallback {
			status = fmt.Sprintf("fallback (%s)", a.Failure)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s | %s |\n",
			a.Agent.Title(), model, Percent(a.Confidence), a.Attempts, FormatDuration(a.ElapsedMS), status))
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Overall Confidence:** %s  \n", Percent(meta.AggregateConfidence)))
	sb.WriteString(fmt.Sprintf("**Completion Status:** %s  \n", meta.Status.Label()))
	sb.WriteString(fmt.Sprintf("**Report Readiness:** %s\n", Readiness(meta.AggregateConfidence)))
	return sb.String()
}

// deliveredCount counts agents that produced model output.
func deliveredCount(meta core.ReportMetadata) int {
	n := 0
	for _, a := range meta.Agents {
		if !a.Fallback {
			n++
		}
	}
	return n
}

// StatusMessage renders the one-line run summary, e.g.
// "Analysis Complete in 12.4s | Confidence: 78% | Agents delivered: 4/4".
func StatusMessage(meta core.ReportMetadata) string {
	return fmt.Sprintf("Analysis %s in %.1fs | Confidence: %s | Agents delivered: %d/%d",
		meta.Status.Label(),
		(time.Duration(meta.ElapsedMS) * time.Millisecond).Seconds(),
		Percent(meta.AggregateConfidence),
		deliveredCount(meta), len(meta.Agents))
}

// ValidationMarkdown renders the report returned for a rejected request.
func ValidationMarkdown(message string, limits core.RequestLimits) string {
	var sb strings.Builder
	sb.WriteString("# Input Validation Failed\n\n")
	sb.WriteString(message)
	sb.WriteString("\n\n## Requirements\n\n")
	sb.WriteString(fmt.Sprintf("- The research query must contain at least %d characters.\n", limits.MinQueryLength))
	sb.WriteString(fmt.Sprintf("- The research query is limited to %d characters.\n", core.MaxQueryLength))
	sb.WriteString(fmt.Sprintf("- Up to %d comma-separated target entities are analyzed; duplicates are ignored.\n", limits.MaxTargets))
	return sb.String()
}
