package service

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures client-side pacing for one model tier.
type RateLimiterConfig struct {
	RequestsPerMinute float64
	Burst             int
}

// Limit converts the configuration into a rate.Limit. Zero means unlimited.
func (c RateLimiterConfig) Limit() rate.Limit {
	if c.RequestsPerMinute <= 0 {
		return rate.Inf
	}
	return rate.Limit(c.RequestsPerMinute / 60)
}

// RateLimiterRegistry hands out one limiter per model tier so that
// fallback tiers are paced independently of the primary.
type RateLimiterRegistry struct {
	limiters map[string]*rate.Limiter
	configs  map[string]RateLimiterConfig
	fallback RateLimiterConfig
	mu       sync.Mutex
}

// NewRateLimiterRegistry creates a registry that applies def to every model
// without an explicit configuration.
func NewRateLimiterRegistry(def RateLimiterConfig) *RateLimiterRegistry {
	return &RateLimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		configs:  make(map[string]RateLimiterConfig),
		fallback: def,
	}
}

// Get returns the limiter for a model, creating it on first use.
func (r *RateLimiterRegistry) Get(model string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, ok := r.limiters[model]; ok {
		return limiter
	}
	cfg, ok := r.configs[model]
	if !ok {
		cfg = r.fallback
	}
	limiter := newLimiter(cfg)
	r.limiters[model] = limiter
	return limiter
}

// SetConfig overrides the pacing of one model.
func (r *RateLimiterRegistry) SetConfig(model string, cfg RateLimiterConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs[model] = cfg
	r.limiters[model] = newLimiter(cfg)
}

// Wait blocks until the model may be called or ctx is done.
func (r *RateLimiterRegistry) Wait(ctx context.Context, model string) error {
	return r.Get(model).Wait(ctx)
}

// Status returns the current token count per model, sorted by name.
func (r *RateLimiterRegistry) Status() []RateLimiterStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := make([]RateLimiterStatus, 0, len(r.limiters))
	for name, limiter := range r.limiters {
		st := RateLimiterStatus{Model: name, Burst: limiter.Burst()}
		if limiter.Limit() == rate.Inf {
			st.Unlimited = true
		} else {
			st.Available = limiter.Tokens()
			st.Limit = float64(limiter.Limit())
		}
		status = append(status, st)
	}
	sort.Slice(status, func(i, j int) bool { return status[i].Model < status[j].Model })
	return status
}

// RateLimiterStatus contains status information.
type RateLimiterStatus struct {
	Model     string  `json:"model"`
	Available float64 `json:"available"`
	Limit     float64 `json:"limit_per_second"`
	Burst     int     `json:"burst"`
	Unlimited bool    `json:"unlimited"`
}

func newLimiter(cfg RateLimiterConfig) *rate.Limiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(cfg.Limit(), burst)
}
