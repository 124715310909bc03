package core

import (
	"context"
	"time"
)

// Prompt is a rendered role prompt.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Size returns the combined prompt length.
func (p Prompt) Size() int {
	return len(p.System) + len(p.User)
}

// CompletionRequest is a single call against one model.
type CompletionRequest struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completion is the text returned by a model.
type Completion struct {
	Text      string
	Model     string
	TokensIn  int
	TokensOut int
	Duration  time.Duration
	Cached    bool
}

// Completer is the outbound contract of a hosted inference provider.
// Implementations return raw provider errors; classification into the
// domain taxonomy happens in the gateway.
type Completer interface {
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string

	// Complete runs one completion against req.Model.
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// ModelGateway is the classified, tier-aware view of a Completer.
type ModelGateway interface {
	// Complete runs prompt against model and returns a classified error on
	// failure (rate_limit, timeout, service or invalid_response).
	Complete(ctx context.Context, prompt Prompt, model string) (Completion, error)

	// Sequence returns the model tiers to try, preferred first.
	Sequence(preferred string) []string
}
