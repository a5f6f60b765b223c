package nlparse

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/runger/nlfind/internal/query"
)

// OpenAIProvider parses queries through the OpenAI chat API. With a
// BaseURL override it also serves any OpenAI-compatible endpoint,
// which is how local Ollama models are reached.
type OpenAIProvider struct {
	client *openai.Client
	opts   Options
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(opts Options) *OpenAIProvider {
	key := opts.APIKey
	if key == "" && opts.BaseURL != "" {
		// Compatible servers want a bearer token but ignore its value.
		key = "unused"
	}

	cfg := openai.DefaultConfig(key)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Available checks whether the provider has somewhere to send
// requests: an API key for the hosted service or an endpoint
// override for a local one.
func (p *OpenAIProvider) Available() bool {
	return p.opts.APIKey != "" || p.opts.BaseURL != ""
}

// Parse converts natural language into a structured query.
func (p *OpenAIProvider) Parse(ctx context.Context, text string) (*query.SearchQuery, error) {
	if !p.Available() {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY or llm.base_url", ErrNoAPIKey)
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.timeout())
	defer cancel()

	now := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(now)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: float32(p.opts.Temperature),
		MaxTokens:   p.opts.MaxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrLLMConnection, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrLLMResponse)
	}

	return DecodeResponse(resp.Choices[0].Message.Content, now)
}
