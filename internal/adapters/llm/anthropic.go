package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// defaultAnthropicMaxTokens is used when the caller leaves MaxTokens unset;
// the Messages API requires a value.
const defaultAnthropicMaxTokens = 2048

// AnthropicClient completes prompts through the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates a client. An empty baseURL uses the SDK default.
func NewAnthropicClient(apiKey, baseURL string, httpClient *http.Client) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...)}
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return ProviderAnthropic
}

// Complete sends one message request and joins the returned text blocks.
func (c *AnthropicClient) Complete(ctx context.Context, req core.CompletionRequest) (core.Completion, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return core.Completion{}, classifyStatus(ProviderAnthropic, apiErr.StatusCode, http.StatusText(apiErr.StatusCode)).WithCause(err)
		}
		return core.Completion{}, classifyTransport(ProviderAnthropic, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	model := string(resp.Model)
	if model == "" {
		model = req.Model
	}
	return core.Completion{
		Text:      text.String(),
		Model:     model,
		TokensIn:  int(resp.Usage.InputTokens),
		TokensOut: int(resp.Usage.OutputTokens),
		Duration:  time.Since(start),
	}, nil
}
