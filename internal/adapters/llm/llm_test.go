package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/srip/internal/config"
	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

func openAIServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_Complete(t *testing.T) {
	var seen map[string]any
	srv := openAIServer(t, http.StatusOK, `{
		"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "llama-3.3-70b-versatile",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "market is growing"}}],
		"usage": {"prompt_tokens": 11, "completion_tokens": 5, "total_tokens": 16}
	}`, &seen)

	c := NewOpenAIClient("test-key", srv.URL+"/v1/", srv.Client())
	comp, err := c.Complete(context.Background(), core.CompletionRequest{
		Model:       "llama-3.3-70b-versatile",
		System:      "You are a market intelligence analyst.",
		User:        "Analyze cloud storage",
		MaxTokens:   1200,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "market is growing", comp.Text)
	assert.Equal(t, "llama-3.3-70b-versatile", comp.Model)
	assert.Equal(t, 11, comp.TokensIn)
	assert.Equal(t, 5, comp.TokensOut)
	assert.Equal(t, "openai", c.Name())

	messages, ok := seen["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
	assert.EqualValues(t, 1200, seen["max_completion_tokens"])
}

func TestOpenAIClient_GroqName(t *testing.T) {
	c := NewOpenAIClient("k", "https://api.groq.com/openai/v1", nil)
	assert.Equal(t, "groq", c.Name())
}

func TestOpenAIClient_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   core.ErrorCategory
	}{
		{http.StatusTooManyRequests, core.ErrCatRateLimit},
		{http.StatusGatewayTimeout, core.ErrCatTimeout},
		{http.StatusServiceUnavailable, core.ErrCatService},
		{http.StatusUnauthorized, core.ErrCatAuth},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := openAIServer(t, tt.status, `{"error": {"message": "nope", "type": "error"}}`, nil)
			c := NewOpenAIClient("k", srv.URL+"/v1/", srv.Client())
			_, err := c.Complete(context.Background(), core.CompletionRequest{Model: "m", User: "u"})
			require.Error(t, err)
			assert.Equal(t, tt.want, core.GetCategory(err))
		})
	}
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := openAIServer(t, http.StatusOK, `{"id": "x", "object": "chat.completion", "created": 1, "model": "m", "choices": []}`, nil)
	c := NewOpenAIClient("k", srv.URL+"/v1/", srv.Client())
	_, err := c.Complete(context.Background(), core.CompletionRequest{Model: "m", User: "u"})
	assert.True(t, core.IsCategory(err, core.ErrCatInvalidResponse), "got %v", err)
}

func TestOpenAIClient_Deadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	c := NewOpenAIClient("k", srv.URL+"/v1/", srv.Client())
	_, err := c.Complete(ctx, core.CompletionRequest{Model: "m", User: "u"})
	assert.True(t, core.IsCategory(err, core.ErrCatTimeout), "got %v", err)
}

func TestAnthropicClient_Complete(t *testing.T) {
	var seen map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &seen)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "risk "}, {"type": "text", "text": "profile"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 9, "output_tokens": 3}
		}`)
	}))
	t.Cleanup(srv.Close)

	c := NewAnthropicClient("k", srv.URL+"/", srv.Client())
	comp, err := c.Complete(context.Background(), core.CompletionRequest{
		Model:  "claude-test",
		System: "You are a risk analyst.",
		User:   "Assess",
	})
	require.NoError(t, err)
	assert.Equal(t, "risk profile", comp.Text)
	assert.Equal(t, 9, comp.TokensIn)
	assert.Equal(t, 3, comp.TokensOut)
	assert.EqualValues(t, defaultAnthropicMaxTokens, seen["max_tokens"])
	assert.NotNil(t, seen["system"])
}

func TestAnthropicClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`)
	}))
	t.Cleanup(srv.Close)

	c := NewAnthropicClient("k", srv.URL+"/", srv.Client())
	_, err := c.Complete(context.Background(), core.CompletionRequest{Model: "m", User: "u"})
	assert.True(t, core.IsCategory(err, core.ErrCatRateLimit), "got %v", err)
}

func TestClassifyTransport(t *testing.T) {
	tests := []struct {
		err  error
		want core.ErrorCategory
	}{
		{context.DeadlineExceeded, core.ErrCatTimeout},
		{context.Canceled, core.ErrCatCancelled},
		{errors.New("429 Too Many Requests"), core.ErrCatRateLimit},
		{errors.New("i/o timeout"), core.ErrCatTimeout},
		{errors.New("connection refused"), core.ErrCatService},
	}
	for _, tt := range tests {
		if got := core.GetCategory(classifyTransport("p", tt.err)); got != tt.want {
			t.Errorf("classifyTransport(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"anthropic", "openai"}, r.Providers())

	c, err := r.New(config.GatewayConfig{Provider: "anthropic", APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Name())

	_, err = New(config.GatewayConfig{Provider: "bogus"})
	var domErr *core.DomainError
	require.True(t, errors.As(err, &domErr))
	assert.Equal(t, core.CodeUnknownProvider, domErr.Code)
}
