package events

import "time"

// Event type constants for agent resilience events.
const (
	TypeAgentRetry    = "agent_retry"
	TypeAgentFallback = "agent_fallback"
)

// AgentRetryEvent is emitted after a failed model call that will be
// retried or escalated to the next tier.
type AgentRetryEvent struct {
	BaseEvent
	Agent    string        `json:"agent"`
	Model    string        `json:"model"`
	Attempt  int           `json:"attempt"`
	Category string        `json:"category"`
	Delay    time.Duration `json:"delay"`
	Escalate bool          `json:"escalate"`
}

// NewAgentRetryEvent creates a new agent retry event.
func NewAgentRetryEvent(runID, agent, model string, attempt int, category string, delay time.Duration, escalate bool) AgentRetryEvent {
	return AgentRetryEvent{
		BaseEvent: NewBaseEvent(TypeAgentRetry, runID),
		Agent:     agent,
		Model:     model,
		Attempt:   attempt,
		Category:  category,
		Delay:     delay,
		Escalate:  escalate,
	}
}

// AgentFallbackEvent is emitted when an agent gives up and records
// fallback output.
type AgentFallbackEvent struct {
	BaseEvent
	Agent    string `json:"agent"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
	Attempts int    `json:"attempts"`
}

// NewAgentFallbackEvent creates a new agent fallback event.
func NewAgentFallbackEvent(runID, agent, category, reason string, attempts int) AgentFallbackEvent {
	return AgentFallbackEvent{
		BaseEvent: NewBaseEvent(TypeAgentFallback, runID),
		Agent:     agent,
		Category:  category,
		Reason:    reason,
		Attempts:  attempts,
	}
}
