package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
)

// OpenAIClient completes prompts through an OpenAI compatible chat
// completions endpoint. Groq is reached through this client by pointing the
// base URL at its OpenAI compatible API.
type OpenAIClient struct {
	client openai.Client
	name   string
}

// NewOpenAIClient creates a client for baseURL. An empty baseURL targets
// the OpenAI API itself.
func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Retries are owned by the gateway retry policy.
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	name := ProviderOpenAI
	if strings.Contains(baseURL, "groq.com") {
		name = "groq"
	}
	return &OpenAIClient{client: openai.NewClient(opts...), name: name}
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return c.name
}

// Complete sends one chat completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req core.CompletionRequest) (core.Completion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:       req.Model,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return core.Completion{}, classifyStatus(c.name, apiErr.StatusCode, apiErr.Message).WithCause(err)
		}
		return core.Completion{}, classifyTransport(c.name, err)
	}
	if len(resp.Choices) == 0 {
		return core.Completion{}, core.ErrInvalidResponse(c.name + " returned no choices")
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return core.Completion{
		Text:      resp.Choices[0].Message.Content,
		Model:     model,
		TokensIn:  int(resp.Usage.PromptTokens),
		TokensOut: int(resp.Usage.CompletionTokens),
		Duration:  time.Since(start),
	}, nil
}
