package nlparse

import (
	"fmt"
	"sort"
	"sync"
)

// ollamaDefaultBaseURL is where a stock local Ollama serves its
// OpenAI-compatible API.
const ollamaDefaultBaseURL = "http://localhost:11434/v1"

// Registry manages available LLM providers and handles provider selection
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	preferred string // User-specified preferred provider
}

// ProviderPriority defines the order of provider selection when in "auto" mode
var ProviderPriority = []string{"openai", "claude-cli"}

// NewRegistry creates a provider registry from the given options.
// The "ollama" provider name is served by the OpenAI adapter pointed
// at the local Ollama endpoint.
func NewRegistry(opts Options) *Registry {
	preferred := opts.Provider
	if preferred == "" {
		preferred = "auto"
	}
	if preferred == "ollama" {
		preferred = "openai"
		if opts.BaseURL == "" {
			opts.BaseURL = ollamaDefaultBaseURL
		}
	}

	r := &Registry{
		providers: make(map[string]Provider),
		preferred: preferred,
	}

	r.Register(NewOpenAIProvider(opts))

	// The stock model name belongs to the OpenAI provider; the claude
	// CLI picks its own default unless the user configured a model.
	claudeOpts := opts
	if claudeOpts.Model == DefaultOpenAIModel {
		claudeOpts.Model = ""
	}
	r.Register(NewClaudeCLIProvider(claudeOpts))

	return r
}

// Register adds a provider to the registry
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// SetPreferred sets the preferred provider.
// Use "auto" to automatically select the best available provider.
func (r *Registry) SetPreferred(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preferred = name
}

// GetPreferred returns the current preferred provider setting
func (r *Registry) GetPreferred() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.preferred
}

// Get returns a specific provider by name
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// GetBest returns the best available provider based on configuration.
// If preferred names a specific provider, that provider is returned
// when available. Under "auto", providers are tried in order of
// ProviderPriority.
func (r *Registry) GetBest() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.preferred != "" && r.preferred != "auto" {
		p, ok := r.providers[r.preferred]
		if !ok {
			return nil, fmt.Errorf("provider %q not registered", r.preferred)
		}
		if !p.Available() {
			return nil, fmt.Errorf("%w: provider %q is not available", ErrNoAPIKey, r.preferred)
		}
		return p, nil
	}

	for _, name := range ProviderPriority {
		if p, ok := r.providers[name]; ok && p.Available() {
			return p, nil
		}
	}

	return nil, fmt.Errorf("%w: no llm providers available", ErrNoAPIKey)
}

// ListAvailable returns a list of all available providers
func (r *Registry) ListAvailable() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var available []string
	for name, p := range r.providers {
		if p.Available() {
			available = append(available, name)
		}
	}
	sort.Strings(available)
	return available
}

// ListAll returns all registered providers with their availability status
func (r *Registry) ListAll() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := make(map[string]bool)
	for name, p := range r.providers {
		status[name] = p.Available()
	}
	return status
}
