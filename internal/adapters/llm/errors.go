package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// classifyStatus maps an HTTP status from a provider onto the gateway
// failure classes.
func classifyStatus(provider string, status int, msg string) *core.DomainError {
	text := fmt.Sprintf("%s returned HTTP %d: %s", provider, status, msg)
	switch {
	case status == http.StatusTooManyRequests:
		return core.ErrRateLimit(text).WithDetail("status", status)
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return core.ErrTimeout(text).WithDetail("status", status)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return core.ErrAuth(text).WithDetail("status", status)
	default:
		return core.ErrService(text).WithDetail("status", status)
	}
}

// classifyTransport converts an error without an HTTP status. Deadlines
// become timeouts; otherwise the error text is checked for the usual
// rate limit and timeout wording.
func classifyTransport(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.ErrTimeout(provider + " request deadline exceeded").WithCause(err)
	}
	if errors.Is(err, context.Canceled) {
		return core.ErrCancelled(provider + " request cancelled").WithCause(err)
	}

	lower := strings.ToLower(err.Error())
	if containsAny(lower, []string{"rate limit", "too many requests", "429", "quota"}) {
		return core.ErrRateLimit(provider + " rate limited").WithCause(err)
	}
	if containsAny(lower, []string{"timeout", "timed out", "deadline"}) {
		return core.ErrTimeout(provider + " request timed out").WithCause(err)
	}
	return core.ErrService(provider + " request failed").WithCause(err)
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
