package events

import "time"

// Event type constants for run lifecycle events.
const (
	TypeRunStarted   = "run_started"
	TypeRunCompleted = "run_completed"
)

// RunStartedEvent is emitted when a pipeline run begins.
type RunStartedEvent struct {
	BaseEvent
	Query   string   `json:"query"`
	Targets []string `json:"targets"`
}

// NewRunStartedEvent creates a new run started event.
func NewRunStartedEvent(runID, query string, targets []string) RunStartedEvent {
	return RunStartedEvent{
		BaseEvent: NewBaseEvent(TypeRunStarted, runID),
		Query:     query,
		Targets:   targets,
	}
}

// RunCompletedEvent is emitted once per run when it reaches Done.
// This is a PRIORITY event - never dropped.
type RunCompletedEvent struct {
	BaseEvent
	Status              string        `json:"status"`
	AggregateConfidence float64       `json:"aggregate_confidence"`
	Fallbacks           int           `json:"fallbacks"`
	Duration            time.Duration `json:"duration"`
}

// NewRunCompletedEvent creates a new run completed event.
func NewRunCompletedEvent(runID, status string, confidence float64, fallbacks int, d time.Duration) RunCompletedEvent {
	return RunCompletedEvent{
		BaseEvent:           NewBaseEvent(TypeRunCompleted, runID),
		Status:              status,
		AggregateConfidence: confidence,
		Fallbacks:           fallbacks,
		Duration:            d,
	}
}
