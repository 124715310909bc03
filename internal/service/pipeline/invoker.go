// Package pipeline runs the four-agent analysis: it renders role prompts,
// invokes models through the resilient gateway, scores the output and
// assembles the final report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/events"
	"github.com/hugo-lorenzo-mato/srip/internal/logging"
	"github.com/hugo-lorenzo-mato/srip/internal/service"
)

// Target list placeholders used when a request names no entities.
const (
	genericCompetitors = "key market leaders"
	genericMarket      = "the broader market"
)

// AgentOptions configures one agent.
type AgentOptions struct {
	// Model is tried first; empty means the first configured tier.
	Model     string
	MaxTokens int
}

// InvokerOptions configures an Invoker.
type InvokerOptions struct {
	Agents             map[core.Role]AgentOptions
	MaxContextChars    int
	Temperature        float64
	MinRecommendations int
}

// DefaultInvokerOptions returns the default agent budgets.
func DefaultInvokerOptions() InvokerOptions {
	return InvokerOptions{
		Agents: map[core.Role]AgentOptions{
			core.RoleMarket:      {MaxTokens: 1000},
			core.RoleCompetitive: {MaxTokens: 1000},
			core.RoleRisk:        {MaxTokens: 800},
			core.RoleStrategic:   {MaxTokens: 700},
		},
		MaxContextChars:    8000,
		Temperature:        0.1,
		MinRecommendations: 4,
	}
}

type runIDKey struct{}

// WithRunID tags ctx with the run identifier used for events and logs.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFrom returns the run identifier stored in ctx.
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// InvokerOption configures optional invoker collaborators.
type InvokerOption func(*Invoker)

// WithInvokerEvents publishes retry and fallback events to bus.
func WithInvokerEvents(bus *events.EventBus) InvokerOption {
	return func(i *Invoker) {
		i.bus = bus
	}
}

// WithInvokerMetrics counts retries in m.
func WithInvokerMetrics(m *service.MetricsCollector) InvokerOption {
	return func(i *Invoker) {
		i.metrics = m
	}
}

// WithInvokerLogger sets the invoker logger.
func WithInvokerLogger(l *logging.Logger) InvokerOption {
	return func(i *Invoker) {
		i.logger = l
	}
}

// WithInvokerClock replaces the clock used to time invocations.
func WithInvokerClock(now func() time.Time) InvokerOption {
	return func(i *Invoker) {
		i.now = now
	}
}

// Invoker runs a single agent: prompt, resilient model call, score.
type Invoker struct {
	gateway core.ModelGateway
	policy  *service.RetryPolicy
	prompts *PromptRenderer
	scorer  *Scorer
	opts    InvokerOptions
	bus     *events.EventBus
	metrics *service.MetricsCollector
	logger  *logging.Logger
	now     func() time.Time
}

// NewInvoker creates an invoker.
func NewInvoker(gateway core.ModelGateway, policy *service.RetryPolicy, scorer *Scorer, opts InvokerOptions, options ...InvokerOption) (*Invoker, error) {
	if gateway == nil || policy == nil || scorer == nil {
		return nil, core.ErrValidation(core.CodeInvalidConfig, "invoker requires a gateway, retry policy and scorer")
	}
	prompts, err := NewPromptRenderer()
	if err != nil {
		return nil, err
	}
	if opts.Agents == nil {
		opts.Agents = DefaultInvokerOptions().Agents
	}
	inv := &Invoker{
		gateway: gateway,
		policy:  policy,
		prompts: prompts,
		scorer:  scorer,
		opts:    opts,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, o := range options {
		o(inv)
	}
	return inv, nil
}

// Prompt renders the prompt role would send for req and agentCtx.
func (i *Invoker) Prompt(role core.Role, req core.AnalysisRequest, agentCtx core.AgentContext) (core.Prompt, error) {
	targets := genericMarket
	if role == core.RoleCompetitive {
		targets = genericCompetitors
	}
	maxRecs := MaxRecommendations
	minRecs := i.opts.MinRecommendations
	if minRecs < 1 || minRecs > maxRecs {
		minRecs = 4
	}

	system, user, err := i.prompts.RenderRole(role, PromptParams{
		Query:              req.Query(),
		Targets:            req.Targets(),
		TargetList:         req.TargetList(targets),
		Context:            agentCtx.Window(i.opts.MaxContextChars),
		MinRecommendations: minRecs,
		MaxRecommendations: maxRecs,
	})
	if err != nil {
		return core.Prompt{}, err
	}
	return core.Prompt{
		System:      system,
		User:        user,
		MaxTokens:   i.opts.Agents[role].MaxTokens,
		Temperature: i.opts.Temperature,
	}, nil
}

// Run invokes the agent for role. It never fails: when every model tier
// is exhausted the result is a fallback with confidence 0 that carries the
// failure category forward.
func (i *Invoker) Run(ctx context.Context, role core.Role, req core.AnalysisRequest, agentCtx core.AgentContext) core.AgentResult {
	start := i.now()
	runID := RunIDFrom(ctx)
	logger := i.logger.WithRun(runID).WithAgent(role.String())

	prompt, err := i.Prompt(role, req, agentCtx)
	if err != nil {
		logger.Error("rendering prompt failed", "error", err)
		return i.fallback(ctx, role, req, core.ErrCatInternal, err.Error(), 1, i.now().Sub(start))
	}

	models := i.gateway.Sequence(i.opts.Agents[role].Model)
	notify := func(e service.RetryEvent) {
		if i.metrics != nil {
			i.metrics.RecordRetry()
		}
		if i.bus != nil {
			i.bus.Publish(events.NewAgentRetryEvent(runID, role.String(), e.Model, e.Attempt,
				string(e.Category), e.Delay, e.Escalate))
		}
		if e.Escalate {
			logger.Warn("abandoning model tier", "model", e.Model, "attempt", e.Attempt, "category", e.Category)
		} else {
			logger.Warn("retrying model call", "model", e.Model, "attempt", e.Attempt, "category", e.Category, "delay", e.Delay)
		}
	}

	out, err := i.policy.InvokeWithResilience(ctx, func(ctx context.Context, model string) (core.Completion, error) {
		return i.gateway.Complete(ctx, prompt, model)
	}, models, notify)
	elapsed := i.now().Sub(start)

	if err != nil {
		category := core.GetCategory(err)
		var exhausted *service.RetryExhaustedError
		if errors.As(err, &exhausted) {
			category = exhausted.LastCategory
		}
		logger.Error("all model tiers exhausted", "attempts", out.Attempts, "category", category, "error", err)
		return i.fallback(ctx, role, req, category, logger.Sanitize(err.Error()), out.Attempts, elapsed)
	}

	result := core.AgentResult{
		Agent:     role,
		RawText:   strings.TrimSpace(out.Completion.Text),
		ModelUsed: out.Model,
		Attempts:  out.Attempts,
		Elapsed:   elapsed,
	}
	result.Confidence = i.scorer.Score(result, req)
	logger.Info("agent completed", "model", out.Model, "attempts", out.Attempts,
		"confidence", fmt.Sprintf("%.2f", result.Confidence), "elapsed", elapsed)
	return result
}

// Fallback returns the fallback result recorded when role cannot run at
// all, e.g. because the caller cancelled before the stage began.
func (i *Invoker) Fallback(ctx context.Context, role core.Role, req core.AnalysisRequest, category core.ErrorCategory, reason string) core.AgentResult {
	return i.fallback(ctx, role, req, category, reason, 1, 0)
}

// fallback builds the stand-in result. A stage that never reached a model
// still counts as one attempt.
func (i *Invoker) fallback(ctx context.Context, role core.Role, req core.AnalysisRequest, category core.ErrorCategory, reason string, attempts int, elapsed time.Duration) core.AgentResult {
	if attempts < 1 {
		attempts = 1
	}
	if i.bus != nil {
		i.bus.Publish(events.NewAgentFallbackEvent(RunIDFrom(ctx), role.String(), string(category), reason, attempts))
	}
	return core.AgentResult{
		Agent:           role,
		RawText:         FallbackText(role, req, category),
		Confidence:      0,
		Attempts:        attempts,
		Elapsed:         elapsed,
		Fallback:        true,
		FailureCategory: category,
		FailureReason:   reason,
	}
}

// FallbackText is the deterministic stand-in output of role.
func FallbackText(role core.Role, req core.AnalysisRequest, category core.ErrorCategory) string {
	return fmt.Sprintf("%s ANALYSIS - LIMITED AVAILABILITY\n\n"+
		"The %s stage for %q could not be completed due to %s. "+
		"No model output is available for this stage; downstream stages proceeded without it.",
		role.Label(), strings.ToLower(role.Title()), req.Query(), category.Description())
}
