package pipeline

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/hugo-lorenzo-mato/srip/internal/config"
	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/events"
	"github.com/hugo-lorenzo-mato/srip/internal/logging"
	"github.com/hugo-lorenzo-mato/srip/internal/service"
	"github.com/hugo-lorenzo-mato/srip/internal/service/report"
)

// ValidationStatusPrefix starts the status message of a rejected request.
const ValidationStatusPrefix = "Input validation failed"

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	policy   *service.RetryPolicy
	bus      *events.EventBus
	metrics  *service.MetricsCollector
	logger   *logging.Logger
	tracer   trace.Tracer
	now      func() time.Time
	newID    func() string
	observer StageObserver
}

// WithRetryPolicy replaces the policy built from configuration.
func WithRetryPolicy(p *service.RetryPolicy) ServiceOption {
	return func(o *serviceOptions) {
		o.policy = p
	}
}

// WithServiceEvents publishes pipeline events to bus.
func WithServiceEvents(bus *events.EventBus) ServiceOption {
	return func(o *serviceOptions) {
		o.bus = bus
	}
}

// WithServiceMetrics records retries and runs in m.
func WithServiceMetrics(m *service.MetricsCollector) ServiceOption {
	return func(o *serviceOptions) {
		o.metrics = m
	}
}

// WithServiceLogger sets the logger shared by the pipeline components.
func WithServiceLogger(l *logging.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = l
	}
}

// WithServiceTracer traces runs with t.
func WithServiceTracer(t trace.Tracer) ServiceOption {
	return func(o *serviceOptions) {
		o.tracer = t
	}
}

// WithServiceClock replaces the clock of every pipeline component.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(o *serviceOptions) {
		o.now = now
	}
}

// WithServiceIDGenerator replaces the run ID generator.
func WithServiceIDGenerator(fn func() string) ServiceOption {
	return func(o *serviceOptions) {
		o.newID = fn
	}
}

// WithServiceObserver registers a stage observer on the orchestrator.
func WithServiceObserver(fn StageObserver) ServiceOption {
	return func(o *serviceOptions) {
		o.observer = fn
	}
}

// Service is the inbound entry point of the analysis pipeline.
type Service struct {
	orchestrator *Orchestrator
	assembler    *Assembler
	limits       core.RequestLimits
	logger       *logging.Logger
}

// NewService wires the pipeline over gateway using cfg.
func NewService(gateway core.ModelGateway, cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		return nil, core.ErrValidation(core.CodeInvalidConfig, "service requires a configuration")
	}
	o := serviceOptions{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.policy == nil {
		o.policy = RetryPolicyFromConfig(cfg.Retry)
	}

	scorer := NewScorer(ScoringOptionsFromConfig(cfg.Scoring))

	invOpts := []InvokerOption{WithInvokerLogger(o.logger)}
	orchOpts := []OrchestratorOption{WithLogger(o.logger)}
	var asmOpts []AssemblerOption
	if o.bus != nil {
		invOpts = append(invOpts, WithInvokerEvents(o.bus))
		orchOpts = append(orchOpts, WithEvents(o.bus))
	}
	if o.metrics != nil {
		invOpts = append(invOpts, WithInvokerMetrics(o.metrics))
		orchOpts = append(orchOpts, WithRunMetrics(o.metrics))
	}
	if o.tracer != nil {
		orchOpts = append(orchOpts, WithTracer(o.tracer))
	}
	if o.now != nil {
		invOpts = append(invOpts, WithInvokerClock(o.now))
		orchOpts = append(orchOpts, WithClock(o.now))
		asmOpts = append(asmOpts, WithAssemblerClock(o.now))
	}
	if o.newID != nil {
		orchOpts = append(orchOpts, WithIDGenerator(o.newID))
	}
	if o.observer != nil {
		orchOpts = append(orchOpts, WithStageObserver(o.observer))
	}

	invoker, err := NewInvoker(gateway, o.policy, scorer, InvokerOptionsFromConfig(cfg), invOpts...)
	if err != nil {
		return nil, err
	}

	return &Service{
		orchestrator: NewOrchestrator(invoker, scorer, orchOpts...),
		assembler: NewAssembler(scorer.Threshold(), report.Options{
			IncludeMetrics: cfg.Report.IncludeMetrics,
		}, asmOpts...),
		limits: cfg.RequestLimits(),
		logger: o.logger,
	}, nil
}

// Limits returns the request validation limits.
func (s *Service) Limits() core.RequestLimits {
	return s.limits
}

// Analyze validates the input, runs the pipeline and assembles the report.
// The only error returned is a validation error; model failures are
// absorbed into the run's completion status.
func (s *Service) Analyze(ctx context.Context, query, targets string) (*core.Report, *core.PipelineRun, error) {
	req, err := core.NewAnalysisRequest(query, targets, s.limits)
	if err != nil {
		s.logger.Warn("rejected analysis request", "error", err)
		return nil, nil, err
	}
	run := s.orchestrator.Run(ctx, req)
	return s.assembler.Assemble(run), run, nil
}

// Render returns the report text and status message of r.
func (s *Service) Render(r *core.Report) (reportText, statusMessage string) {
	return s.assembler.Render(r)
}

// ExecuteCompleteAnalysis runs a full analysis and returns the report text
// and status message. It never fails: invalid input yields a validation
// report and a status starting with "Input validation failed".
func (s *Service) ExecuteCompleteAnalysis(ctx context.Context, query, targets string) (reportText, statusMessage string) {
	r, _, err := s.Analyze(ctx, query, targets)
	if err != nil {
		return s.ValidationReport(err)
	}
	return s.Render(r)
}

// ValidationReport renders the report and status of a rejected request.
func (s *Service) ValidationReport(err error) (reportText, statusMessage string) {
	message := err.Error()
	var de *core.DomainError
	if errors.As(err, &de) {
		message = de.Message
	}
	return report.ValidationMarkdown(message, s.limits), ValidationStatusPrefix + ": " + message
}

// RetryPolicyFromConfig builds the retry controller from configuration.
func RetryPolicyFromConfig(cfg config.RetryConfig) *service.RetryPolicy {
	return service.NewRetryPolicy(
		service.WithMaxAttempts(cfg.MaxAttempts),
		service.WithBaseDelay(cfg.BaseDelay),
		service.WithTierDelay(cfg.TierDelay),
		service.WithMaxDelay(cfg.MaxDelay),
		service.WithJitter(cfg.Jitter),
		service.WithServiceRetries(cfg.ServiceErrorRetries),
	)
}

// ScoringOptionsFromConfig maps scoring configuration onto the scorer.
func ScoringOptionsFromConfig(cfg config.ScoringConfig) ScoringOptions {
	return ScoringOptions{
		Threshold:          cfg.Threshold,
		AggregateFloor:     cfg.AggregateFloor,
		MinRecommendations: cfg.MinRecommendations,
		Weights: ScoreWeights{
			Length:  cfg.Weights.Length,
			Markers: cfg.Weights.Markers,
			Clean:   cfg.Weights.Clean,
		},
	}
}

// InvokerOptionsFromConfig maps agent and pipeline configuration onto the
// invoker.
func InvokerOptionsFromConfig(cfg *config.Config) InvokerOptions {
	opts := InvokerOptions{
		Agents:             make(map[core.Role]AgentOptions, len(core.AllRoles())),
		MaxContextChars:    cfg.Pipeline.MaxContextChars,
		Temperature:        cfg.Gateway.Temperature,
		MinRecommendations: cfg.Scoring.MinRecommendations,
	}
	defaults := DefaultInvokerOptions().Agents
	for _, role := range core.AllRoles() {
		a := cfg.Agents.For(role)
		if a.MaxTokens <= 0 {
			a.MaxTokens = defaults[role].MaxTokens
		}
		opts.Agents[role] = AgentOptions{Model: a.Model, MaxTokens: a.MaxTokens}
	}
	return opts
}

// NewGatewayFromConfig builds the model gateway over completer, enabling
// pacing and the response cache when configured.
func NewGatewayFromConfig(completer core.Completer, cfg config.GatewayConfig, metrics *service.MetricsCollector, logger *logging.Logger) (*service.Gateway, error) {
	opts := []service.GatewayOption{}
	if logger != nil {
		opts = append(opts, service.WithGatewayLogger(logger))
	}
	if metrics != nil {
		opts = append(opts, service.WithMetrics(metrics))
	}
	if cfg.RequestsPerMinute > 0 {
		opts = append(opts, service.WithPacing(service.NewRateLimiterRegistry(service.RateLimiterConfig{
			RequestsPerMinute: cfg.RequestsPerMinute,
			Burst:             1,
		})))
	}
	if cfg.Cache.Enabled {
		opts = append(opts, service.WithCache(service.NewResponseCache(cfg.Cache.MaxEntries)))
	}
	return service.NewGateway(completer, service.GatewayConfig{
		Models:           cfg.Models,
		MinResponseChars: cfg.MinResponseChars,
		RequestTimeout:   cfg.RequestTimeout,
	}, opts...)
}
