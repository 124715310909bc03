package events

import "time"

// Event type constants for pipeline stage events.
const (
	TypeStageStarted   = "stage_started"
	TypeStageCompleted = "stage_completed"
)

// StageStartedEvent is emitted when the orchestrator enters a state.
type StageStartedEvent struct {
	BaseEvent
	State string `json:"state"`
	Agent string `json:"agent,omitempty"`
}

// NewStageStartedEvent creates a new stage started event.
func NewStageStartedEvent(runID, state, agent string) StageStartedEvent {
	return StageStartedEvent{
		BaseEvent: NewBaseEvent(TypeStageStarted, runID),
		State:     state,
		Agent:     agent,
	}
}

// StageCompletedEvent is emitted when an agent stage finishes.
type StageCompletedEvent struct {
	BaseEvent
	State      string        `json:"state"`
	Agent      string        `json:"agent"`
	Model      string        `json:"model,omitempty"`
	Confidence float64       `json:"confidence"`
	Attempts   int           `json:"attempts"`
	Fallback   bool          `json:"fallback"`
	Duration   time.Duration `json:"duration"`
}

// NewStageCompletedEvent creates a new stage completed event.
func NewStageCompletedEvent(runID, state, agent, model string, confidence float64, attempts int, fallback bool, d time.Duration) StageCompletedEvent {
	return StageCompletedEvent{
		BaseEvent:  NewBaseEvent(TypeStageCompleted, runID),
		State:      state,
		Agent:      agent,
		Model:      model,
		Confidence: confidence,
		Attempts:   attempts,
		Fallback:   fallback,
		Duration:   d,
	}
}
