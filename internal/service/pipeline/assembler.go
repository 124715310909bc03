package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/service/report"
)

// ExecutiveSummaryTitle is the title of the synthesized first section.
const ExecutiveSummaryTitle = "Executive Summary"

// Degradation reasons recorded on sections that are not model output.
const (
	ReasonLowConfidence   = "low_confidence"
	ReasonSystemicFailure = "systemic_failure"
)

// maxFindingRunes bounds a key finding quoted in the executive summary.
const maxFindingRunes = 220

var (
	headerLine = regexp.MustCompile(`^#{1,6}\s*(.+?)\s*#*$`)
	bulletLine = regexp.MustCompile(`^(\s*)[*•+\-]\s+(.+)$`)
	emphasis   = regexp.MustCompile(`\*\*|__`)
)

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithAssemblerClock replaces the clock that stamps GeneratedAt.
func WithAssemblerClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

// Assembler turns a finished run into the five-section report.
type Assembler struct {
	threshold float64
	render    report.Options
	now       func() time.Time
}

// NewAssembler creates an assembler. Agent output is used verbatim only
// when its confidence exceeds threshold.
func NewAssembler(threshold float64, render report.Options, opts ...AssemblerOption) *Assembler {
	a := &Assembler{threshold: threshold, render: render, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the report of run. Every section is non-empty: agents
// that fell back or scored at or below the threshold get a placeholder
// naming the reason.
func (a *Assembler) Assemble(run *core.PipelineRun) *core.Report {
	r := &core.Report{Metadata: a.metadata(run)}
	for _, role := range core.AllRoles() {
		*r.SectionFor(role) = a.section(run, role)
	}
	r.ExecutiveSummary = a.executiveSummary(run, r)
	return r
}

// Render returns the markdown report text and the one-line status message.
func (a *Assembler) Render(r *core.Report) (reportText, statusMessage string) {
	return report.Markdown(r, a.render), report.StatusMessage(r.Metadata)
}

func (a *Assembler) metadata(run *core.PipelineRun) core.ReportMetadata {
	meta := core.ReportMetadata{
		RunID:               run.ID,
		Query:               run.Request.Query(),
		Targets:             run.Request.Targets(),
		GeneratedAt:         a.now(),
		TotalElapsed:        run.TotalElapsed,
		ElapsedMS:           run.TotalElapsed.Milliseconds(),
		AggregateConfidence: run.AggregateConfidence,
		Status:              run.Status,
		Agents:              make([]core.AgentSummary, 0, len(run.Results)),
	}
	for _, res := range run.Results {
		meta.Agents = append(meta.Agents, core.AgentSummary{
			Agent:      res.Agent,
			Model:      res.ModelUsed,
			Confidence: res.Confidence,
			Attempts:   res.Attempts,
			ElapsedMS:  res.ElapsedMS(),
			Fallback:   res.Fallback,
			Failure:    res.FailureCategory,
		})
	}
	return meta
}

func (a *Assembler) section(run *core.PipelineRun, role core.Role) core.Section {
	res, ok := run.Result(role)
	if !ok {
		res = core.AgentResult{Agent: role, Fallback: true, FailureCategory: core.ErrCatInternal}
	}

	if !res.Fallback && res.Confidence > a.threshold {
		if body := formatBody(role, res.RawText); body != "" {
			return core.Section{Title: role.Title(), Body: body}
		}
	}

	code, why := a.degradation(res)
	return core.Section{
		Title:    role.Title(),
		Body:     placeholder(role, why),
		Degraded: true,
		Reason:   code,
	}
}

// degradation returns the reason code and phrase for a result that cannot
// be used verbatim.
func (a *Assembler) degradation(res core.AgentResult) (string, string) {
	if res.Fallback {
		category := res.FailureCategory
		if category == "" {
			category = core.ErrCatInternal
		}
		return string(category), category.Description()
	}
	return ReasonLowConfidence, fmt.Sprintf("low confidence in the generated analysis (%s, at or below the %s threshold)",
		report.Percent(res.Confidence), report.Percent(a.threshold))
}

func placeholder(role core.Role, why string) string {
	return fmt.Sprintf("*Degraded output.* The %s analysis is unavailable for this report due to %s.\n\n"+
		"The remaining sections were generated without this input. Treat conclusions that depend on it as "+
		"provisional and re-run the analysis for a complete view.",
		strings.ToLower(role.Title()), why)
}

// formatBody reformats agent output for embedding under a section heading:
// headers are demoted one level below the section, bullet markers are
// normalized to "- " and blank runs are collapsed. Strategic output is
// reduced to its numbered recommendations when any can be extracted.
func formatBody(role core.Role, text string) string {
	if role == core.RoleStrategic {
		if recs := ParseRecommendations(text); len(recs) > 0 {
			var sb strings.Builder
			for i, rec := range recs {
				fmt.Fprintf(&sb, "%d. %s\n", i+1, rec)
			}
			return strings.TrimSpace(sb.String())
		}
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false

		if m := headerLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			out = append(out, "### "+m[1])
			continue
		}
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			out = append(out, m[1]+"- "+m[2])
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// executiveSummary is synthesized from the run status and the first
// meaningful line of every other section.
func (a *Assembler) executiveSummary(run *core.PipelineRun, r *core.Report) core.Section {
	var sb strings.Builder
	sb.WriteString(statusSentence(run))
	sb.WriteString("\n\n")
	for _, role := range core.AllRoles() {
		s := r.SectionFor(role)
		if s.Degraded {
			fmt.Fprintf(&sb, "- **%s:** Unavailable (%s).\n", s.Title, reasonPhrase(s.Reason))
			continue
		}
		fmt.Fprintf(&sb, "- **%s:** %s\n", s.Title, keyFinding(s.Body))
	}

	section := core.Section{Title: ExecutiveSummaryTitle, Body: strings.TrimSpace(sb.String())}
	if run.Status == core.StatusFailed {
		section.Degraded = true
		section.Reason = ReasonSystemicFailure
	}
	return section
}

func statusSentence(run *core.PipelineRun) string {
	total := len(core.AllRoles())
	confidence := report.Percent(run.AggregateConfidence)
	switch run.Status {
	case core.StatusComplete:
		return fmt.Sprintf("All %d intelligence agents delivered their analyses of %q with an aggregate confidence of %s (%s).",
			total, run.Request.Query(), confidence, report.Readiness(run.AggregateConfidence))
	case core.StatusPartialFailure:
		return fmt.Sprintf("%d of %d intelligence agents delivered analyses of %q; the report is partial and its aggregate confidence is %s. "+
			"Sections marked unavailable should be re-run before decisions rely on them.",
			run.DeliveredCount(), total, run.Request.Query(), confidence)
	default:
		return fmt.Sprintf("The analysis of %q could not be completed: %d of %d agents delivered (aggregate confidence %s). "+
			"The sections below are placeholders and the analysis should be re-run.",
			run.Request.Query(), run.DeliveredCount(), total, confidence)
	}
}

func reasonPhrase(code string) string {
	switch code {
	case ReasonLowConfidence:
		return "low confidence"
	case "":
		return core.ErrCatInternal.Description()
	default:
		return core.ErrorCategory(code).Description()
	}
}

// keyFinding returns the first meaningful line of a section body with list
// and emphasis markup removed, shortened to a word boundary.
func keyFinding(body string) string {
	var fallback string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || headerLine.MatchString(line) || strings.HasPrefix(line, "|") {
			continue
		}
		line = strings.TrimSpace(emphasis.ReplaceAllString(stripListMarker(line), ""))
		if fallback == "" {
			fallback = line
		}
		if len(line) >= 20 {
			return shorten(line, maxFindingRunes)
		}
	}
	return shorten(fallback, maxFindingRunes)
}

func shorten(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	cut := string(r[:limit])
	if i := strings.LastIndex(cut, " "); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}
