// Package llm adapts hosted chat completion APIs to core.Completer.
package llm

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/hugo-lorenzo-mato/srip/internal/config"
	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Factory creates a completer from gateway configuration.
type Factory func(cfg config.GatewayConfig, httpClient *http.Client) (core.Completer, error)

// Registry maps provider names to factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a registry with the built-in providers.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(ProviderOpenAI, func(cfg config.GatewayConfig, hc *http.Client) (core.Completer, error) {
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, hc), nil
	})
	r.Register(ProviderAnthropic, func(cfg config.GatewayConfig, hc *http.Client) (core.Completer, error) {
		return NewAnthropicClient(cfg.APIKey, cfg.BaseURL, hc), nil
	})
	return r
}

// Register adds or replaces a provider factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Providers returns the registered provider names, sorted.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the completer configured in cfg.
func (r *Registry) New(cfg config.GatewayConfig, httpClient *http.Client) (core.Completer, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, core.ErrValidation(core.CodeUnknownProvider,
			fmt.Sprintf("unknown provider %q, available: %v", cfg.Provider, r.Providers()))
	}
	return f(cfg, httpClient)
}

// New creates the completer configured in cfg using the built-in providers.
func New(cfg config.GatewayConfig) (core.Completer, error) {
	return NewRegistry().New(cfg, nil)
}
