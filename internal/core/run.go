package core

import "time"

// PipelineState is the orchestrator state of one run.
type PipelineState string

const (
	StateNotStarted         PipelineState = "not_started"
	StateRunningMarket      PipelineState = "running_market"
	StateRunningCompetitive PipelineState = "running_competitive"
	StateRunningRisk        PipelineState = "running_risk"
	StateRunningStrategic   PipelineState = "running_strategic"
	StateFinalizing         PipelineState = "finalizing"
	StateDone               PipelineState = "done"
)

// StateForRole returns the running state for a role.
func StateForRole(r Role) PipelineState {
	switch r {
	case RoleMarket:
		return StateRunningMarket
	case RoleCompetitive:
		return StateRunningCompetitive
	case RoleRisk:
		return StateRunningRisk
	case RoleStrategic:
		return StateRunningStrategic
	default:
		return ""
	}
}

// NextState returns the state following s. Done is terminal.
func NextState(s PipelineState) PipelineState {
	switch s {
	case StateNotStarted:
		return StateRunningMarket
	case StateRunningMarket:
		return StateRunningCompetitive
	case StateRunningCompetitive:
		return StateRunningRisk
	case StateRunningRisk:
		return StateRunningStrategic
	case StateRunningStrategic:
		return StateFinalizing
	default:
		return StateDone
	}
}

// CompletionStatus summarizes how many agents delivered.
type CompletionStatus string

const (
	StatusComplete       CompletionStatus = "complete"
	StatusPartialFailure CompletionStatus = "partial_failure"
	StatusFailed         CompletionStatus = "failed"
)

// Label returns the display form of the status.
func (s CompletionStatus) Label() string {
	switch s {
	case StatusComplete:
		return "Complete"
	case StatusPartialFailure:
		return "PartialFailure"
	case StatusFailed:
		return "Failed"
	default:
		return string(s)
	}
}

// SystemicFailureThreshold is the number of fallback agents that marks a
// run as Failed.
const SystemicFailureThreshold = 3

// DetermineStatus derives the completion status of a set of results.
// threshold is the per-agent confidence a result must exceed to count as
// delivered in full.
func DetermineStatus(results []AgentResult, threshold float64) CompletionStatus {
	fallbacks := 0
	allConfident := len(results) == len(AllRoles())
	for _, r := range results {
		if r.Fallback {
			fallbacks++
		}
		if r.Confidence <= threshold {
			allConfident = false
		}
	}
	switch {
	case fallbacks >= SystemicFailureThreshold:
		return StatusFailed
	case fallbacks == 0 && allConfident:
		return StatusComplete
	default:
		return StatusPartialFailure
	}
}

// PipelineRun is the state of one analysis from start to Done.
type PipelineRun struct {
	ID                  string
	Request             AnalysisRequest
	Results             []AgentResult
	AggregateConfidence float64
	StartedAt           time.Time
	TotalElapsed        time.Duration
	Status              CompletionStatus
	State               PipelineState
}

// Result returns the result recorded for role, if any.
func (r *PipelineRun) Result(role Role) (AgentResult, bool) {
	for _, res := range r.Results {
		if res.Agent == role {
			return res, true
		}
	}
	return AgentResult{}, false
}

// FallbackCount returns how many agents fell back.
func (r *PipelineRun) FallbackCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Fallback {
			n++
		}
	}
	return n
}

// DeliveredCount returns how many agents produced model output.
func (r *PipelineRun) DeliveredCount() int {
	return len(r.Results) - r.FallbackCount()
}
