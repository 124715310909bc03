package config

import (
	"fmt"
	"strings"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// MinAPIKeyLength rejects obviously truncated credentials.
const MinAPIKeyLength = 15

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration. Credentials are checked
// separately by ValidateCredentials so that offline commands still work.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateGateway(&cfg.Gateway)
	v.validateRetry(&cfg.Retry)
	v.validateAgents(&cfg.Agents, cfg.Gateway.Models)
	v.validatePipeline(&cfg.Pipeline)
	v.validateScoring(&cfg.Scoring)
	v.validateReport(&cfg.Report)
	v.validateTrace(&cfg.Trace)
	v.validateBatch(&cfg.Batch)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		v.addError("log.level", cfg.Level, "must be one of debug, info, warn, error")
	}
	switch cfg.Format {
	case "auto", "text", "json":
	default:
		v.addError("log.format", cfg.Format, "must be one of auto, text, json")
	}
}

func (v *Validator) validateGateway(cfg *GatewayConfig) {
	switch cfg.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		v.addError("gateway.provider", cfg.Provider, "must be openai or anthropic")
	}
	if len(cfg.Models) == 0 {
		v.addError("gateway.models", cfg.Models, "at least one model tier is required")
	}
	seen := make(map[string]bool)
	for i, m := range cfg.Models {
		if strings.TrimSpace(m) == "" {
			v.addError(fmt.Sprintf("gateway.models[%d]", i), m, "model id must not be empty")
			continue
		}
		if seen[m] {
			v.addError(fmt.Sprintf("gateway.models[%d]", i), m, "duplicate model tier")
		}
		seen[m] = true
	}
	if cfg.RequestTimeout <= 0 {
		v.addError("gateway.request_timeout", cfg.RequestTimeout, "must be positive")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		v.addError("gateway.temperature", cfg.Temperature, "must be between 0 and 2")
	}
	if cfg.MinResponseChars < 0 {
		v.addError("gateway.min_response_chars", cfg.MinResponseChars, "must not be negative")
	}
	if cfg.RequestsPerMinute < 0 {
		v.addError("gateway.requests_per_minute", cfg.RequestsPerMinute, "must not be negative")
	}
	if cfg.Cache.Enabled && cfg.Cache.MaxEntries <= 0 {
		v.addError("gateway.cache.max_entries", cfg.Cache.MaxEntries, "must be positive when the cache is enabled")
	}
}

func (v *Validator) validateRetry(cfg *RetryConfig) {
	if cfg.MaxAttempts < 1 {
		v.addError("retry.max_attempts", cfg.MaxAttempts, "must be at least 1")
	}
	if cfg.BaseDelay < 0 {
		v.addError("retry.base_delay", cfg.BaseDelay, "must not be negative")
	}
	if cfg.TierDelay < 0 {
		v.addError("retry.tier_delay", cfg.TierDelay, "must not be negative")
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		v.addError("retry.max_delay", cfg.MaxDelay, "must be at least retry.base_delay")
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		v.addError("retry.jitter", cfg.Jitter, "must be between 0 and 1")
	}
	if cfg.ServiceErrorRetries < 0 {
		v.addError("retry.service_error_retries", cfg.ServiceErrorRetries, "must not be negative")
	}
}

func (v *Validator) validateAgents(cfg *AgentsConfig, models []string) {
	for _, role := range core.AllRoles() {
		agent := cfg.For(role)
		if agent.MaxTokens <= 0 {
			v.addError("agents."+string(role)+".max_tokens", agent.MaxTokens, "must be positive")
		}
		if agent.Model != "" && !contains(models, agent.Model) {
			v.addError("agents."+string(role)+".model", agent.Model, "must be one of gateway.models")
		}
	}
}

func (v *Validator) validatePipeline(cfg *PipelineConfig) {
	if cfg.MaxContextChars < 0 {
		v.addError("pipeline.max_context_chars", cfg.MaxContextChars, "must not be negative")
	}
	if cfg.MaxTargets < 0 {
		v.addError("pipeline.max_targets", cfg.MaxTargets, "must not be negative")
	}
	if cfg.MinQueryLength < 1 {
		v.addError("pipeline.min_query_length", cfg.MinQueryLength, "must be at least 1")
	}
}

func (v *Validator) validateScoring(cfg *ScoringConfig) {
	if cfg.Threshold < 0 || cfg.Threshold >= 1 {
		v.addError("scoring.threshold", cfg.Threshold, "must be in [0, 1)")
	}
	if cfg.AggregateFloor < 0 || cfg.AggregateFloor > 1 {
		v.addError("scoring.aggregate_floor", cfg.AggregateFloor, "must be in [0, 1]")
	}
	if cfg.MinRecommendations < 1 {
		v.addError("scoring.min_recommendations", cfg.MinRecommendations, "must be at least 1")
	}
	w := cfg.Weights
	if w.Length < 0 || w.Markers < 0 || w.Clean < 0 {
		v.addError("scoring.weights", w, "weights must not be negative")
	} else if w.Length+w.Markers+w.Clean == 0 {
		v.addError("scoring.weights", w, "at least one weight must be positive")
	}
}

func (v *Validator) validateReport(cfg *ReportConfig) {
	switch cfg.Format {
	case "markdown", "md", "json", "yaml", "yml", "text", "txt":
	default:
		v.addError("report.format", cfg.Format, "must be one of markdown, text, json, yaml")
	}
	if cfg.WordWrap < 0 {
		v.addError("report.word_wrap", cfg.WordWrap, "must not be negative")
	}
}

func (v *Validator) validateTrace(cfg *TraceConfig) {
	switch cfg.Exporter {
	case "none", "stdout":
	case "otlp":
		if cfg.Endpoint == "" {
			v.addError("trace.endpoint", cfg.Endpoint, "required for the otlp exporter")
		}
	default:
		v.addError("trace.exporter", cfg.Exporter, "must be one of none, stdout, otlp")
	}
}

func (v *Validator) validateBatch(cfg *BatchConfig) {
	if cfg.Concurrency < 1 {
		v.addError("batch.concurrency", cfg.Concurrency, "must be at least 1")
	}
}

// ValidateCredentials checks that the gateway has a usable API key.
func ValidateCredentials(cfg *GatewayConfig) error {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return core.ErrValidation(core.CodeMissingAPIKey,
			"no API key configured: set gateway.api_key, SRIP_GATEWAY_API_KEY or the provider key variable")
	}
	if len(key) < MinAPIKeyLength {
		return core.ErrValidation(core.CodeMissingAPIKey, "API key looks truncated").
			WithDetail("length", len(key))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
