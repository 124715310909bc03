package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "SRIP"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: EnvPrefix,
		lookupEnv: os.LookupEnv,
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (SRIP_*)
// 3. Project config (.srip.yaml in current directory)
// 4. User config (~/.config/srip/.srip.yaml)
// 5. Defaults
//
// An empty gateway.api_key falls back to the provider's conventional
// environment variable (GROQ_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY).
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".srip")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "srip"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Gateway.APIKey == "" {
		cfg.Gateway.APIKey = l.providerKey(cfg.Gateway.Provider, cfg.Gateway.BaseURL)
	}

	return &cfg, nil
}

// Defaults returns the built-in configuration without reading config files
// or the environment.
func Defaults() *Config {
	l := NewLoader()
	l.setDefaults()
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid built-in defaults: %v", err))
	}
	return &cfg
}

func (l *Loader) providerKey(provider, baseURL string) string {
	var names []string
	switch provider {
	case ProviderAnthropic:
		names = []string{"ANTHROPIC_API_KEY"}
	default:
		if strings.Contains(baseURL, "groq.com") {
			names = []string{"GROQ_API_KEY", "OPENAI_API_KEY"}
		} else {
			names = []string{"OPENAI_API_KEY", "GROQ_API_KEY"}
		}
	}
	for _, name := range names {
		if v, ok := l.lookupEnv(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	// Log defaults
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")
	l.v.SetDefault("log.file", "")

	// Gateway defaults
	l.v.SetDefault("gateway.provider", ProviderOpenAI)
	l.v.SetDefault("gateway.base_url", core.DefaultBaseURL)
	l.v.SetDefault("gateway.api_key", "")
	l.v.SetDefault("gateway.models", core.DefaultModelTiers)
	l.v.SetDefault("gateway.request_timeout", "60s")
	l.v.SetDefault("gateway.temperature", 0.1)
	l.v.SetDefault("gateway.min_response_chars", 150)
	l.v.SetDefault("gateway.requests_per_minute", 0)
	l.v.SetDefault("gateway.cache.enabled", false)
	l.v.SetDefault("gateway.cache.max_entries", 256)

	// Retry defaults
	l.v.SetDefault("retry.max_attempts", 3)
	l.v.SetDefault("retry.base_delay", "15s")
	l.v.SetDefault("retry.tier_delay", "10s")
	l.v.SetDefault("retry.max_delay", "60s")
	l.v.SetDefault("retry.jitter", 0.0)
	l.v.SetDefault("retry.service_error_retries", 0)

	// Agent defaults (empty model means the first tier)
	for _, role := range core.AllRoles() {
		l.v.SetDefault("agents."+string(role)+".model", "")
	}
	l.v.SetDefault("agents.market.max_tokens", 1000)
	l.v.SetDefault("agents.competitive.max_tokens", 1000)
	l.v.SetDefault("agents.risk.max_tokens", 800)
	l.v.SetDefault("agents.strategic.max_tokens", 700)

	// Pipeline defaults
	l.v.SetDefault("pipeline.max_context_chars", 8000)
	l.v.SetDefault("pipeline.max_targets", 8)
	l.v.SetDefault("pipeline.min_query_length", 10)

	// Scoring defaults
	l.v.SetDefault("scoring.threshold", 0.30)
	l.v.SetDefault("scoring.aggregate_floor", 0.25)
	l.v.SetDefault("scoring.min_recommendations", 4)
	l.v.SetDefault("scoring.weights.length", 0.40)
	l.v.SetDefault("scoring.weights.markers", 0.40)
	l.v.SetDefault("scoring.weights.clean", 0.20)

	// Report defaults
	l.v.SetDefault("report.dir", "reports")
	l.v.SetDefault("report.format", "markdown")
	l.v.SetDefault("report.word_wrap", 100)
	l.v.SetDefault("report.include_metrics", true)

	// Trace defaults
	l.v.SetDefault("trace.exporter", "none")
	l.v.SetDefault("trace.endpoint", "localhost:4317")
	l.v.SetDefault("trace.service_name", "srip")

	// Server defaults
	l.v.SetDefault("server.addr", ":8080")

	// Batch defaults
	l.v.SetDefault("batch.concurrency", 2)
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}
