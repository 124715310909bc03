package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/events"
	"github.com/hugo-lorenzo-mato/srip/internal/logging"
	"github.com/hugo-lorenzo-mato/srip/internal/service"
)

// OrchestratorOption configures optional orchestrator collaborators.
type OrchestratorOption func(*Orchestrator)

// WithTracer traces every run and stage with t.
func WithTracer(t trace.Tracer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// WithEvents publishes stage transitions to bus.
func WithEvents(bus *events.EventBus) OrchestratorOption {
	return func(o *Orchestrator) {
		o.bus = bus
	}
}

// WithRunMetrics records finished runs in m.
func WithRunMetrics(m *service.MetricsCollector) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(l *logging.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithClock replaces the clock used for run timing.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithIDGenerator replaces the run ID generator.
func WithIDGenerator(fn func() string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.newID = fn
	}
}

// StageObserver is called with the context each stage receives, before
// the stage runs.
type StageObserver func(role core.Role, agentCtx core.AgentContext)

// WithStageObserver registers fn as a stage observer.
func WithStageObserver(fn StageObserver) OrchestratorOption {
	return func(o *Orchestrator) {
		o.observe = fn
	}
}

// Orchestrator drives one request through the fixed agent sequence.
type Orchestrator struct {
	invoker *Invoker
	scorer  *Scorer
	tracer  trace.Tracer
	bus     *events.EventBus
	metrics *service.MetricsCollector
	logger  *logging.Logger
	now     func() time.Time
	newID   func() string
	observe StageObserver
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(invoker *Invoker, scorer *Scorer, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		invoker: invoker,
		scorer:  scorer,
		tracer:  noop.NewTracerProvider().Tracer("pipeline"),
		logger:  logging.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes Market, Competitive, Risk and Strategic in order and
// returns the finalized run. Every stage records a result; an agent that
// cannot deliver records a fallback. Cancellation of ctx is observed
// between stages only: calls already in flight finish, and the stages that
// have not started record cancelled fallbacks.
func (o *Orchestrator) Run(ctx context.Context, req core.AnalysisRequest) *core.PipelineRun {
	run := &core.PipelineRun{
		ID:      o.newID(),
		Request: req,
		Results: make([]core.AgentResult, 0, len(core.AllRoles())),
		State:   core.StateNotStarted,
	}
	logger := o.logger.WithRun(run.ID)

	ctx, span := o.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("srip.run_id", run.ID),
		attribute.Int("srip.targets", len(req.Targets())),
	))
	defer span.End()

	run.StartedAt = o.now()
	o.publish(events.NewRunStartedEvent(run.ID, req.Query(), req.Targets()))
	logger.Info("analysis started", "query", req.Query(), "targets", req.Targets())

	// Stage calls must not be torn down mid-flight by the caller.
	stageCtx := WithRunID(context.WithoutCancel(ctx), run.ID)

	var agentCtx core.AgentContext
	for _, role := range core.AllRoles() {
		run.State = core.NextState(run.State)
		o.publish(events.NewStageStartedEvent(run.ID, string(run.State), role.String()))
		if o.observe != nil {
			o.observe(role, agentCtx)
		}

		result := o.runStage(ctx, stageCtx, role, req, agentCtx)
		run.Results = append(run.Results, result)
		agentCtx = agentCtx.With(role, result.RawText)

		o.publish(events.NewStageCompletedEvent(run.ID, string(run.State), role.String(), result.ModelUsed,
			result.Confidence, result.Attempts, result.Fallback, result.Elapsed))
	}

	run.State = core.NextState(run.State)
	o.publish(events.NewStageStartedEvent(run.ID, string(run.State), ""))
	run.AggregateConfidence = o.scorer.Aggregate(run.Results)
	run.Status = core.DetermineStatus(run.Results, o.scorer.Threshold())
	run.State = core.NextState(run.State)
	run.TotalElapsed = o.now().Sub(run.StartedAt)

	span.SetAttributes(
		attribute.String("srip.status", string(run.Status)),
		attribute.Float64("srip.aggregate_confidence", run.AggregateConfidence),
		attribute.Int("srip.fallbacks", run.FallbackCount()),
	)
	if run.Status == core.StatusFailed {
		span.SetStatus(codes.Error, "systemic failure")
	}

	if o.metrics != nil {
		o.metrics.RecordRun(run)
	}
	o.publish(events.NewRunCompletedEvent(run.ID, string(run.Status),
		run.AggregateConfidence, run.FallbackCount(), run.TotalElapsed))
	logger.Info("analysis finished",
		"status", run.Status,
		"confidence", run.AggregateConfidence,
		"delivered", run.DeliveredCount(),
		"elapsed", run.TotalElapsed)
	return run
}

func (o *Orchestrator) runStage(parent, stageCtx context.Context, role core.Role, req core.AnalysisRequest, agentCtx core.AgentContext) core.AgentResult {
	_, span := o.tracer.Start(parent, "pipeline.stage."+role.String(), trace.WithAttributes(
		attribute.String("srip.agent", role.String()),
		attribute.Int("srip.context_chars", agentCtx.Size()),
	))
	defer span.End()

	var result core.AgentResult
	if err := parent.Err(); err != nil {
		result = o.invoker.Fallback(stageCtx, role, req, core.ErrCatCancelled, "analysis cancelled before this stage started")
	} else {
		result = o.invoker.Run(trace.ContextWithSpan(stageCtx, span), role, req, agentCtx)
	}

	span.SetAttributes(
		attribute.String("srip.model", result.ModelUsed),
		attribute.Int("srip.attempts", result.Attempts),
		attribute.Float64("srip.confidence", result.Confidence),
		attribute.Bool("srip.fallback", result.Fallback),
	)
	if result.Fallback {
		span.SetStatus(codes.Error, string(result.FailureCategory))
	}
	return result
}

func (o *Orchestrator) publish(e events.Event) {
	if o.bus != nil {
		o.bus.Publish(e)
	}
}
