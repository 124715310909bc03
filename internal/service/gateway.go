package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/logging"
)

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	Models           []string
	MinResponseChars int
	RequestTimeout   time.Duration
}

// GatewayOption configures optional gateway collaborators.
type GatewayOption func(*Gateway)

// WithPacing paces calls per model tier.
func WithPacing(r *RateLimiterRegistry) GatewayOption {
	return func(g *Gateway) {
		g.pacer = r
	}
}

// WithCache serves repeated prompts from c.
func WithCache(c *ResponseCache) GatewayOption {
	return func(g *Gateway) {
		g.cache = c
	}
}

// WithMetrics records every call in m.
func WithMetrics(m *MetricsCollector) GatewayOption {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithGatewayLogger sets the gateway logger.
func WithGatewayLogger(l *logging.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = l
	}
}

// Gateway fronts a provider Completer with an ordered model-tier list and
// classifies every failure as rate_limit, timeout, service or
// invalid_response.
type Gateway struct {
	completer core.Completer
	models    []string
	minChars  int
	timeout   time.Duration
	pacer     *RateLimiterRegistry
	cache     *ResponseCache
	metrics   *MetricsCollector
	logger    *logging.Logger
}

// NewGateway creates a gateway over completer.
func NewGateway(completer core.Completer, cfg GatewayConfig, opts ...GatewayOption) (*Gateway, error) {
	if completer == nil {
		return nil, core.ErrValidation(core.CodeInvalidConfig, "gateway requires a completer")
	}
	models := make([]string, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return nil, core.ErrValidation(core.CodeNoModels, "gateway requires at least one model tier")
	}

	g := &Gateway{
		completer: completer,
		models:    models,
		minChars:  cfg.MinResponseChars,
		timeout:   cfg.RequestTimeout,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Provider returns the name of the underlying completer.
func (g *Gateway) Provider() string {
	return g.completer.Name()
}

// Models returns a copy of the configured model tiers in order.
func (g *Gateway) Models() []string {
	out := make([]string, len(g.models))
	copy(out, g.models)
	return out
}

// Sequence returns the tiers to try for a caller that prefers model
// preferred: the preferred model first, then the remaining tiers in their
// configured order. An empty preference yields the configured order.
func (g *Gateway) Sequence(preferred string) []string {
	if preferred == "" {
		return g.Models()
	}
	seq := make([]string, 0, len(g.models)+1)
	seq = append(seq, preferred)
	for _, m := range g.models {
		if m != preferred {
			seq = append(seq, m)
		}
	}
	return seq
}

// Complete runs prompt against model.
func (g *Gateway) Complete(ctx context.Context, prompt core.Prompt, model string) (core.Completion, error) {
	var key string
	if g.cache != nil {
		key = CacheKey(prompt)
		if comp, ok := g.cache.Get(key); ok {
			comp.Cached = true
			g.record(model, comp, 0, nil)
			return comp, nil
		}
	}

	if g.pacer != nil {
		if err := g.pacer.Wait(ctx, model); err != nil {
			err = core.ErrTimeout("waiting for rate limiter").WithCause(err).WithDetail("model", model)
			g.record(model, core.Completion{}, 0, err)
			return core.Completion{}, err
		}
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	comp, err := g.completer.Complete(callCtx, core.CompletionRequest{
		Model:       model,
		System:      prompt.System,
		User:        prompt.User,
		MaxTokens:   prompt.MaxTokens,
		Temperature: prompt.Temperature,
	})
	elapsed := time.Since(start)
	if comp.Duration == 0 {
		comp.Duration = elapsed
	}
	if comp.Model == "" {
		comp.Model = model
	}

	if err != nil {
		err = g.classify(err, model)
	} else {
		err = g.validate(comp, model)
	}
	g.record(model, comp, elapsed, err)
	if err != nil {
		g.logger.Debug("model call failed", "model", model, "category", core.GetCategory(err), "error", err)
		return core.Completion{}, err
	}

	if g.cache != nil {
		g.cache.Put(key, comp)
	}
	return comp, nil
}

// classify normalizes a provider error. Adapters already return domain
// errors for the failures they recognize; everything else is either a
// deadline or a service failure.
func (g *Gateway) classify(err error, model string) error {
	var domErr *core.DomainError
	if errors.As(err, &domErr) {
		switch domErr.Category {
		case core.ErrCatRateLimit, core.ErrCatTimeout, core.ErrCatService, core.ErrCatInvalidResponse:
			return err
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.ErrTimeout(fmt.Sprintf("model %s did not answer within %s", model, g.timeout)).WithCause(err)
	}
	return core.ErrService(fmt.Sprintf("model %s call failed", model)).WithCause(err)
}

func (g *Gateway) validate(comp core.Completion, model string) error {
	text := strings.TrimSpace(comp.Text)
	if text == "" {
		return core.ErrInvalidResponse(fmt.Sprintf("model %s returned an empty completion", model))
	}
	if g.minChars > 0 && len(text) < g.minChars {
		return core.ErrInvalidResponse(fmt.Sprintf("model %s returned %d characters, below the %d minimum",
			model, len(text), g.minChars)).WithDetail("length", len(text))
	}
	return nil
}

func (g *Gateway) record(model string, comp core.Completion, elapsed time.Duration, err error) {
	if g.metrics != nil {
		g.metrics.RecordCall(model, comp, elapsed, err)
	}
}
