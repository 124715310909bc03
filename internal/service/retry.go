package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// RetryPolicy walks an ordered list of model tiers, retrying transient
// failures in place and escalating to the next tier when a tier is
// exhausted or unavailable.
type RetryPolicy struct {
	MaxAttempts    int           // attempts per tier
	BaseDelay      time.Duration // delay unit, multiplied by the attempt number
	TierDelay      time.Duration // extra delay per tier index
	MaxDelay       time.Duration
	JitterFactor   float64 // 0.0 to 1.0
	ServiceRetries int     // extra in-place attempts on a service error

	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns a default retry policy.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   15 * time.Second,
		TierDelay:   10 * time.Second,
		MaxDelay:    60 * time.Second,
		sleep:       sleepContext,
	}
}

// RetryPolicyOption configures a retry policy.
type RetryPolicyOption func(*RetryPolicy)

// WithMaxAttempts sets the maximum number of attempts per tier.
func WithMaxAttempts(n int) RetryPolicyOption {
	return func(p *RetryPolicy) {
		p.MaxAttempts = n
	}
}

// WithBaseDelay sets the per-attempt delay unit.
func WithBaseDelay(d time.Duration) RetryPolicyOption {
	return func(p *RetryPolicy) {
		p.BaseDelay = d
	}
}

// WithTierDelay sets the additional delay per tier index.
func WithTierDelay(d time.Duration) RetryPolicyOption {
	return func(p *RetryPolicy) {
		p.TierDelay = d
	}
}

// WithMaxDelay sets the maximum delay.
func WithMaxDelay(d time.Duration) RetryPolicyOption {
	return func(p *RetryPolicy) {
		p.MaxDelay = d
	}
}

// WithJitter sets the jitter factor.
func WithJitter(factor float64) RetryPolicyOption {
	return func(p *RetryPolicy) {
		p.JitterFactor = factor
	}
}

// WithServiceRetries sets how many extra attempts a service error gets
// before the tier is abandoned.
func WithServiceRetries(n int) RetryPolicyOption {
	return func(p *RetryPolicy) {
		p.ServiceRetries = n
	}
}

// WithSleep replaces the wait function, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) RetryPolicyOption {
	return func(p *RetryPolicy) {
		p.sleep = fn
	}
}

// NewRetryPolicy creates a new retry policy.
func NewRetryPolicy(opts ...RetryPolicyOption) *RetryPolicy {
	p := DefaultRetryPolicy()
	for _, opt := range opts {
		opt(p)
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}
	return p
}

// CallFunc performs one completion attempt against model.
type CallFunc func(ctx context.Context, model string) (core.Completion, error)

// Outcome is the successful result of InvokeWithResilience.
type Outcome struct {
	Completion  core.Completion
	Model       string
	Attempts    int // total calls across all tiers
	Escalations int // tiers abandoned before success
}

// RetryEvent describes one failed attempt.
type RetryEvent struct {
	Model    string
	Tier     int
	Attempt  int
	Category core.ErrorCategory
	Err      error
	Delay    time.Duration // zero when escalating
	Escalate bool          // true when the tier is being abandoned
}

// RetryNotifyFunc is called after each failed attempt.
type RetryNotifyFunc func(RetryEvent)

// InvokeWithResilience calls fn against each model in order until one
// succeeds. Rate limit and timeout failures are retried on the same model
// up to MaxAttempts with progressive delay. Service errors abandon the
// model after ServiceRetries extra attempts; invalid responses abandon it
// immediately. When every model is exhausted a *RetryExhaustedError is
// returned carrying the last failure class and the total attempt count.
func (p *RetryPolicy) InvokeWithResilience(ctx context.Context, fn CallFunc, models []string, notify RetryNotifyFunc) (Outcome, error) {
	if len(models) == 0 {
		return Outcome{}, core.ErrValidation(core.CodeNoModels, "no model tiers configured")
	}

	var (
		total    int
		lastErr  error
		lastCat  core.ErrorCategory
		escalate int
	)

	for tier, model := range models {
		serviceFailures := 0
		for attempt := 1; ; attempt++ {
			total++
			completion, err := fn(ctx, model)
			if err == nil {
				return Outcome{
					Completion:  completion,
					Model:       model,
					Attempts:    total,
					Escalations: escalate,
				}, nil
			}

			lastErr = err
			lastCat = classifyFailure(err)

			retry := false
			switch lastCat {
			case core.ErrCatRateLimit, core.ErrCatTimeout:
				retry = attempt < p.MaxAttempts
			case core.ErrCatService:
				serviceFailures++
				retry = serviceFailures <= p.ServiceRetries && attempt < p.MaxAttempts
			}

			event := RetryEvent{Model: model, Tier: tier, Attempt: attempt, Category: lastCat, Err: err}
			if !retry {
				event.Escalate = true
				if notify != nil {
					notify(event)
				}
				break
			}

			event.Delay = p.CalculateDelay(attempt, tier)
			if notify != nil {
				notify(event)
			}
			if err := p.sleep(ctx, event.Delay); err != nil {
				return Outcome{Attempts: total}, &RetryExhaustedError{
					Attempts:     total,
					Models:       models[:tier+1],
					LastCategory: core.ErrCatCancelled,
					LastErr:      err,
				}
			}
		}
		escalate++
	}

	return Outcome{Attempts: total}, &RetryExhaustedError{
		Attempts:     total,
		Models:       models,
		LastCategory: lastCat,
		LastErr:      lastErr,
	}
}

// classifyFailure maps an error onto the gateway failure classes. Anything
// unrecognized is treated as the tier being unavailable.
func classifyFailure(err error) core.ErrorCategory {
	switch cat := core.GetCategory(err); cat {
	case core.ErrCatRateLimit, core.ErrCatTimeout, core.ErrCatInvalidResponse:
		return cat
	default:
		return core.ErrCatService
	}
}

// CalculateDelay computes the wait after a failed attempt on the given
// tier: BaseDelay*attempt + TierDelay*tier, capped at MaxDelay.
func (p *RetryPolicy) CalculateDelay(attempt, tier int) time.Duration {
	delay := float64(p.CalculateDelayNoJitter(attempt, tier))
	if p.JitterFactor > 0 {
		delay = addJitter(delay, p.JitterFactor)
		if delay > float64(p.MaxDelay) {
			delay = float64(p.MaxDelay)
		}
	}
	return time.Duration(delay)
}

// CalculateDelayNoJitter computes the delay without jitter.
func (p *RetryPolicy) CalculateDelayNoJitter(attempt, tier int) time.Duration {
	delay := p.BaseDelay*time.Duration(attempt) + p.TierDelay*time.Duration(tier)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// addJitter adds random jitter to a delay.
func addJitter(delay float64, factor float64) float64 {
	jitter := delay * factor
	// Random value between -jitter and +jitter
	return delay + (rand.Float64()*2-1)*jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryExhaustedError indicates every model tier failed.
type RetryExhaustedError struct {
	Attempts     int
	Models       []string
	LastCategory core.ErrorCategory
	LastErr      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%d model tier(s) exhausted after %d attempts, last failure %s: %v",
		len(e.Models), e.Attempts, e.LastCategory, e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.LastErr
}

// IsRetryExhausted checks if an error is a RetryExhaustedError.
func IsRetryExhausted(err error) bool {
	var exhausted *RetryExhaustedError
	return errors.As(err, &exhausted)
}
