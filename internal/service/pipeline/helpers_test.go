package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/srip/internal/config"
	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/service"
	"github.com/hugo-lorenzo-mato/srip/internal/testutil"
)

var testTiers = []string{"tier-1", "tier-2", "tier-3"}

func fastPolicy() *service.RetryPolicy {
	return service.NewRetryPolicy(
		service.WithMaxAttempts(3),
		service.WithBaseDelay(time.Millisecond),
		service.WithTierDelay(time.Millisecond),
		service.WithSleep(testutil.NoSleep),
	)
}

func newTestGateway(t *testing.T, completer core.Completer) *service.Gateway {
	t.Helper()
	g, err := service.NewGateway(completer, service.GatewayConfig{
		Models:           testTiers,
		MinResponseChars: 150,
	})
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	return g
}

func newTestInvoker(t *testing.T, completer core.Completer, opts ...InvokerOption) *Invoker {
	t.Helper()
	inv, err := NewInvoker(newTestGateway(t, completer), fastPolicy(), NewScorer(DefaultScoringOptions()),
		DefaultInvokerOptions(), opts...)
	if err != nil {
		t.Fatalf("NewInvoker() error = %v", err)
	}
	return inv
}

func fixedClock() func() time.Time {
	base := time.Date(2025, 1, 21, 15, 30, 0, 0, time.UTC)
	var n int
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * 100 * time.Millisecond)
	}
}

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
}

func newTestService(t *testing.T, completer core.Completer, opts ...ServiceOption) *Service {
	t.Helper()
	cfg := config.Defaults()
	cfg.Gateway.Models = testTiers
	base := []ServiceOption{
		WithRetryPolicy(fastPolicy()),
		WithServiceClock(fixedClock()),
		WithServiceIDGenerator(sequentialIDs()),
	}
	svc, err := NewService(newTestGateway(t, completer), cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func mustRequest(t *testing.T, query, targets string) core.AnalysisRequest {
	t.Helper()
	req, err := core.NewAnalysisRequest(query, targets, core.DefaultRequestLimits())
	if err != nil {
		t.Fatalf("NewAnalysisRequest() error = %v", err)
	}
	return req
}

func cloudRequest(t *testing.T) core.AnalysisRequest {
	return mustRequest(t, testutil.CloudStorageQuery, testutil.CloudStorageTargets)
}
