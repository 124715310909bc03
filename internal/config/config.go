package config

import (
	"time"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// Config holds all application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Agents   AgentsConfig   `mapstructure:"agents"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Report   ReportConfig   `mapstructure:"report"`
	Trace    TraceConfig    `mapstructure:"trace"`
	Server   ServerConfig   `mapstructure:"server"`
	Batch    BatchConfig    `mapstructure:"batch"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// GatewayConfig configures the model gateway and its provider.
type GatewayConfig struct {
	Provider          string        `mapstructure:"provider"`
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Models            []string      `mapstructure:"models"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	Temperature       float64       `mapstructure:"temperature"`
	MinResponseChars  int           `mapstructure:"min_response_chars"`
	RequestsPerMinute float64       `mapstructure:"requests_per_minute"`
	Cache             CacheConfig   `mapstructure:"cache"`
}

// CacheConfig configures the in-memory response cache.
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxEntries int  `mapstructure:"max_entries"`
}

// RetryConfig configures per-tier retries and backoff.
type RetryConfig struct {
	MaxAttempts         int           `mapstructure:"max_attempts"`
	BaseDelay           time.Duration `mapstructure:"base_delay"`
	TierDelay           time.Duration `mapstructure:"tier_delay"`
	MaxDelay            time.Duration `mapstructure:"max_delay"`
	Jitter              float64       `mapstructure:"jitter"`
	ServiceErrorRetries int           `mapstructure:"service_error_retries"`
}

// AgentsConfig configures the four analysis agents.
type AgentsConfig struct {
	Market      AgentConfig `mapstructure:"market"`
	Competitive AgentConfig `mapstructure:"competitive"`
	Risk        AgentConfig `mapstructure:"risk"`
	Strategic   AgentConfig `mapstructure:"strategic"`
}

// AgentConfig configures a single agent.
type AgentConfig struct {
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// For returns the configuration of role.
func (a AgentsConfig) For(role core.Role) AgentConfig {
	switch role {
	case core.RoleMarket:
		return a.Market
	case core.RoleCompetitive:
		return a.Competitive
	case core.RoleRisk:
		return a.Risk
	case core.RoleStrategic:
		return a.Strategic
	default:
		return AgentConfig{}
	}
}

// PipelineConfig configures request limits and context threading.
type PipelineConfig struct {
	MaxContextChars int `mapstructure:"max_context_chars"`
	MaxTargets      int `mapstructure:"max_targets"`
	MinQueryLength  int `mapstructure:"min_query_length"`
}

// ScoringConfig configures the quality scorer.
type ScoringConfig struct {
	Threshold          float64        `mapstructure:"threshold"`
	AggregateFloor     float64        `mapstructure:"aggregate_floor"`
	MinRecommendations int            `mapstructure:"min_recommendations"`
	Weights            ScoringWeights `mapstructure:"weights"`
}

// ScoringWeights balances the components of a per-agent score.
type ScoringWeights struct {
	Length  float64 `mapstructure:"length"`
	Markers float64 `mapstructure:"markers"`
	Clean   float64 `mapstructure:"clean"`
}

// ReportConfig configures report rendering.
type ReportConfig struct {
	Dir            string `mapstructure:"dir"`
	Format         string `mapstructure:"format"`
	WordWrap       int    `mapstructure:"word_wrap"`
	IncludeMetrics bool   `mapstructure:"include_metrics"`
}

// TraceConfig configures OpenTelemetry tracing.
type TraceConfig struct {
	Exporter    string `mapstructure:"exporter"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// BatchConfig configures the batch command.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// RequestLimits returns the request validation limits.
func (c *Config) RequestLimits() core.RequestLimits {
	return core.RequestLimits{
		MinQueryLength: c.Pipeline.MinQueryLength,
		MaxTargets:     c.Pipeline.MaxTargets,
	}
}
