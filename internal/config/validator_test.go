package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

func validConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "auto"},
		Gateway: GatewayConfig{
			Provider:       ProviderOpenAI,
			Models:         []string{"tier-1", "tier-2"},
			RequestTimeout: time.Minute,
			Temperature:    0.1,
		},
		Retry: RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: time.Minute},
		Agents: AgentsConfig{
			Market:      AgentConfig{MaxTokens: 1000},
			Competitive: AgentConfig{MaxTokens: 1000},
			Risk:        AgentConfig{MaxTokens: 800},
			Strategic:   AgentConfig{MaxTokens: 700},
		},
		Pipeline: PipelineConfig{MaxContextChars: 8000, MaxTargets: 8, MinQueryLength: 10},
		Scoring: ScoringConfig{
			Threshold:          0.3,
			AggregateFloor:     0.25,
			MinRecommendations: 4,
			Weights:            ScoringWeights{Length: 0.4, Markers: 0.4, Clean: 0.2},
		},
		Report: ReportConfig{Dir: "reports", Format: "markdown"},
		Trace:  TraceConfig{Exporter: "none"},
		Batch:  BatchConfig{Concurrency: 1},
	}
}

func TestValidator_ValidConfig(t *testing.T) {
	if err := NewValidator().Validate(validConfig()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidator_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad provider", func(c *Config) { c.Gateway.Provider = "bedrock" }, "gateway.provider"},
		{"no models", func(c *Config) { c.Gateway.Models = nil }, "gateway.models"},
		{"duplicate model", func(c *Config) { c.Gateway.Models = []string{"a", "a"} }, "gateway.models[1]"},
		{"zero timeout", func(c *Config) { c.Gateway.RequestTimeout = 0 }, "gateway.request_timeout"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"max below base", func(c *Config) { c.Retry.MaxDelay = time.Millisecond }, "retry.max_delay"},
		{"jitter above one", func(c *Config) { c.Retry.Jitter = 1.5 }, "retry.jitter"},
		{"bad report format", func(c *Config) { c.Report.Format = "pdf" }, "report.format"},
		{"unknown agent model", func(c *Config) { c.Agents.Risk.Model = "tier-9" }, "agents.risk.model"},
		{"zero max tokens", func(c *Config) { c.Agents.Strategic.MaxTokens = 0 }, "agents.strategic.max_tokens"},
		{"threshold of one", func(c *Config) { c.Scoring.Threshold = 1 }, "scoring.threshold"},
		{"zero weights", func(c *Config) { c.Scoring.Weights = ScoringWeights{} }, "scoring.weights"},
		{"otlp without endpoint", func(c *Config) { c.Trace.Exporter = "otlp" }, "trace.endpoint"},
		{"zero concurrency", func(c *Config) { c.Batch.Concurrency = 0 }, "batch.concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := NewValidator().Validate(cfg)
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %s in %v", tt.field, verrs)
			}
		})
	}
}

func TestValidator_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Format = "xml"
	cfg.Retry.MaxAttempts = -1

	v := NewValidator()
	err := v.Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(v.Errors()) != 2 {
		t.Errorf("Errors() = %d, want 2", len(v.Errors()))
	}
	if !strings.Contains(err.Error(), "log.format") || !strings.Contains(err.Error(), "retry.max_attempts") {
		t.Errorf("error message missing fields: %v", err)
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"empty", "", true},
		{"blank", "   ", true},
		{"truncated", "gsk_short", true},
		{"valid", "gsk_0123456789abcdef", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(&GatewayConfig{APIKey: tt.key})
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateCredentials() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !core.IsCategory(err, core.ErrCatValidation) {
				t.Errorf("expected validation category, got %s", core.GetCategory(err))
			}
		})
	}
}
