// Package nlparse turns natural-language descriptions of a file
// search into structured queries by delegating to an LLM provider.
// The providers share one prompt contract: the model returns a single
// JSON object whose fields mirror the query model, and the decoder
// tolerates the common ways models bend that contract (code fences,
// sizes as strings, varying date layouts).
package nlparse

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/runger/nlfind/internal/query"
)

// DefaultTimeout is the default timeout for LLM provider calls.
const DefaultTimeout = 30 * time.Second

// DefaultOpenAIModel is the stock model for the OpenAI provider.
const DefaultOpenAIModel = "gpt-4o-mini"

// Sentinel errors mirroring the ways a parse can fail. Callers
// typically fall back to treating the input as a literal pattern.
var (
	// ErrNoAPIKey reports that the provider has no credentials.
	ErrNoAPIKey = errors.New("llm api key not configured")

	// ErrLLMConnection reports a transport-level failure.
	ErrLLMConnection = errors.New("llm connection failed")

	// ErrLLMResponse reports an empty or unusable completion.
	ErrLLMResponse = errors.New("llm returned unusable response")

	// ErrLLMParse reports a completion that could not be decoded
	// into a query.
	ErrLLMParse = errors.New("llm response could not be parsed")
)

// Provider defines the interface for LLM query parsers.
type Provider interface {
	// Name returns the provider name (e.g., "openai", "claude-cli")
	Name() string

	// Available checks if the provider is usable (API key present
	// or CLI found)
	Available() bool

	// Parse converts natural language into a structured query. The
	// returned query has no root path; the caller supplies it.
	Parse(ctx context.Context, text string) (*query.SearchQuery, error)
}

// Options configures providers built by NewRegistry.
type Options struct {
	// Provider is the preferred provider name, or "auto".
	Provider string

	// Model is the provider-specific model name.
	Model string

	// APIKey authenticates API-based providers.
	APIKey string

	// BaseURL overrides the API endpoint. A local Ollama server's
	// /v1 endpoint works here with any non-empty key ignored.
	BaseURL string

	// Temperature is the sampling temperature.
	Temperature float64

	// MaxTokens caps the completion length.
	MaxTokens int

	// Timeout bounds each provider call. Zero means DefaultTimeout.
	Timeout time.Duration
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Heuristic builds a query without an LLM: the text is taken as a
// filename pattern, with shell-leftover quotes stripped. Callers use
// it for explicit pattern searches and as the fallback when no
// provider is usable or a parse fails.
func Heuristic(text string) *query.SearchQuery {
	text = strings.TrimSpace(text)
	if len(text) >= 2 {
		if (text[0] == '"' && text[len(text)-1] == '"') ||
			(text[0] == '\'' && text[len(text)-1] == '\'') {
			text = text[1 : len(text)-1]
		}
	}
	return &query.SearchQuery{Pattern: text}
}
