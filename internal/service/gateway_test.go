package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/testutil"
)

var longAnswer = strings.Repeat("The market grew 12% to $4 billion. ", 6)

type blockingCompleter struct{}

func (blockingCompleter) Name() string { return "blocking" }

func (blockingCompleter) Complete(ctx context.Context, _ core.CompletionRequest) (core.Completion, error) {
	<-ctx.Done()
	return core.Completion{}, ctx.Err()
}

func newTestGateway(t *testing.T, c core.Completer, opts ...GatewayOption) *Gateway {
	t.Helper()
	g, err := NewGateway(c, GatewayConfig{
		Models:           []string{"tier-1", "tier-2", "tier-3"},
		MinResponseChars: 150,
	}, opts...)
	require.NoError(t, err)
	return g
}

func TestNewGateway_Validation(t *testing.T) {
	_, err := NewGateway(nil, GatewayConfig{Models: []string{"a"}})
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))

	_, err = NewGateway(testutil.NewScriptedCompleter(), GatewayConfig{Models: []string{" ", ""}})
	require.Error(t, err)
	var domErr *core.DomainError
	require.True(t, errors.As(err, &domErr))
	assert.Equal(t, core.CodeNoModels, domErr.Code)
}

func TestGateway_Sequence(t *testing.T) {
	g := newTestGateway(t, testutil.NewScriptedCompleter())

	assert.Equal(t, []string{"tier-1", "tier-2", "tier-3"}, g.Sequence(""))
	assert.Equal(t, []string{"tier-2", "tier-1", "tier-3"}, g.Sequence("tier-2"))
	assert.Equal(t, []string{"custom", "tier-1", "tier-2", "tier-3"}, g.Sequence("custom"))
	assert.Equal(t, "scripted", g.Provider())
}

func TestGateway_CompleteSuccess(t *testing.T) {
	completer := testutil.NewScriptedCompleter().Script("tier-1", testutil.Reply(longAnswer))
	g := newTestGateway(t, completer)

	comp, err := g.Complete(context.Background(), core.Prompt{System: "sys", User: "user", MaxTokens: 100}, "tier-1")
	require.NoError(t, err)
	assert.Equal(t, longAnswer, comp.Text)
	assert.Equal(t, "tier-1", comp.Model)

	calls := completer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sys", calls[0].Request.System)
	assert.Equal(t, 100, calls[0].Request.MaxTokens)
}

func TestGateway_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name string
		step testutil.Step
		want core.ErrorCategory
	}{
		{"rate limit passes through", testutil.Fail(core.ErrRateLimit("429")), core.ErrCatRateLimit},
		{"timeout passes through", testutil.Fail(core.ErrTimeout("slow")), core.ErrCatTimeout},
		{"unknown error becomes service", testutil.Fail(errors.New("dial tcp: refused")), core.ErrCatService},
		{"auth error becomes service", testutil.Fail(core.ErrAuth("bad key")), core.ErrCatService},
		{"empty text is invalid", testutil.Reply("   "), core.ErrCatInvalidResponse},
		{"short text is invalid", testutil.Reply("too short"), core.ErrCatInvalidResponse},
		{"raw deadline becomes timeout", testutil.Fail(context.DeadlineExceeded), core.ErrCatTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(t, testutil.NewScriptedCompleter().Script("tier-1", tt.step))
			_, err := g.Complete(context.Background(), core.Prompt{User: "q"}, "tier-1")
			require.Error(t, err)
			assert.Equal(t, tt.want, core.GetCategory(err))
		})
	}
}

func TestGateway_RequestTimeout(t *testing.T) {
	g, err := NewGateway(blockingCompleter{}, GatewayConfig{
		Models:         []string{"tier-1"},
		RequestTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = g.Complete(context.Background(), core.Prompt{User: "q"}, "tier-1")
	assert.True(t, core.IsCategory(err, core.ErrCatTimeout), "got %v", err)
}

func TestGateway_CacheServesRepeatedPrompt(t *testing.T) {
	completer := testutil.NewScriptedCompleter().Script("tier-1", testutil.Reply(longAnswer))
	cache := NewResponseCache(4)
	metrics := NewMetricsCollector()
	g := newTestGateway(t, completer, WithCache(cache), WithMetrics(metrics))

	prompt := core.Prompt{System: "sys", User: "same"}
	first, err := g.Complete(context.Background(), prompt, "tier-1")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := g.Complete(context.Background(), prompt, "tier-2")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, completer.CallCount())

	hits, misses := cache.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	models := metrics.GetModelMetrics()
	require.Len(t, models, 2)
	assert.Equal(t, 1, models[1].CacheHits)
}

func TestGateway_FailuresAreNotCached(t *testing.T) {
	completer := testutil.NewScriptedCompleter().Script("tier-1", testutil.Reply("short"), testutil.Reply(longAnswer))
	cache := NewResponseCache(4)
	g := newTestGateway(t, completer, WithCache(cache))

	_, err := g.Complete(context.Background(), core.Prompt{User: "q"}, "tier-1")
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())

	_, err = g.Complete(context.Background(), core.Prompt{User: "q"}, "tier-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())
}

func TestGateway_PacingHonoursContext(t *testing.T) {
	pacer := NewRateLimiterRegistry(RateLimiterConfig{RequestsPerMinute: 1, Burst: 1})
	completer := testutil.NewScriptedCompleter().Script("tier-1", testutil.Reply(longAnswer))
	g := newTestGateway(t, completer, WithPacing(pacer))

	_, err := g.Complete(context.Background(), core.Prompt{User: "first"}, "tier-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = g.Complete(ctx, core.Prompt{User: "second"}, "tier-1")
	assert.True(t, core.IsCategory(err, core.ErrCatTimeout), "got %v", err)
	assert.Equal(t, 1, completer.CallCount())
}

func TestGateway_WithRetryPolicyFallsBack(t *testing.T) {
	completer := testutil.NewScriptedCompleter().
		Script("tier-1", testutil.Fail(core.ErrService("down"))).
		Script("tier-2", testutil.Reply(longAnswer))
	g := newTestGateway(t, completer)
	rec := &sleepRecorder{}
	policy := newTestPolicy(rec)

	out, err := policy.InvokeWithResilience(context.Background(), func(ctx context.Context, model string) (core.Completion, error) {
		return g.Complete(ctx, core.Prompt{User: "q"}, model)
	}, g.Sequence(""), nil)
	require.NoError(t, err)
	assert.Equal(t, "tier-2", out.Model)
	assert.Equal(t, 2, out.Attempts)
}
