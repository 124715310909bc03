package core

import "time"

// Section is one titled block of the final report.
type Section struct {
	Title    string `json:"title" yaml:"title"`
	Body     string `json:"body" yaml:"body"`
	Degraded bool   `json:"degraded" yaml:"degraded"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// AgentSummary records per-agent metrics in the report metadata.
type AgentSummary struct {
	Agent      Role          `json:"agent" yaml:"agent"`
	Model      string        `json:"model,omitempty" yaml:"model,omitempty"`
	Confidence float64       `json:"confidence" yaml:"confidence"`
	Attempts   int           `json:"attempts" yaml:"attempts"`
	ElapsedMS  int64         `json:"elapsed_ms" yaml:"elapsed_ms"`
	Fallback   bool          `json:"fallback" yaml:"fallback"`
	Failure    ErrorCategory `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// ReportMetadata carries timing and confidence information.
type ReportMetadata struct {
	RunID               string           `json:"run_id" yaml:"run_id"`
	Query               string           `json:"query" yaml:"query"`
	Targets             []string         `json:"targets" yaml:"targets"`
	GeneratedAt         time.Time        `json:"generated_at" yaml:"generated_at"`
	TotalElapsed        time.Duration    `json:"-" yaml:"-"`
	ElapsedMS           int64            `json:"elapsed_ms" yaml:"elapsed_ms"`
	AggregateConfidence float64          `json:"aggregate_confidence" yaml:"aggregate_confidence"`
	Status              CompletionStatus `json:"completion_status" yaml:"completion_status"`
	Agents              []AgentSummary   `json:"agents" yaml:"agents"`
}

// Report is the five-section analysis handed back to the caller.
type Report struct {
	ExecutiveSummary Section        `json:"executive_summary" yaml:"executive_summary"`
	Market           Section        `json:"market" yaml:"market"`
	Competitive      Section        `json:"competitive" yaml:"competitive"`
	Risk             Section        `json:"risk" yaml:"risk"`
	Strategic        Section        `json:"strategic" yaml:"strategic"`
	Metadata         ReportMetadata `json:"metadata" yaml:"metadata"`
}

// Sections returns the five sections in presentation order.
func (r *Report) Sections() []Section {
	return []Section{r.ExecutiveSummary, r.Market, r.Competitive, r.Risk, r.Strategic}
}

// SectionFor returns a pointer to the section produced by role.
func (r *Report) SectionFor(role Role) *Section {
	switch role {
	case RoleMarket:
		return &r.Market
	case RoleCompetitive:
		return &r.Competitive
	case RoleRisk:
		return &r.Risk
	case RoleStrategic:
		return &r.Strategic
	default:
		return nil
	}
}
