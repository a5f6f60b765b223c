package nlparse

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/runger/nlfind/internal/query"
)

// ClaudeCLIProvider parses queries by shelling out to the claude CLI.
// It needs no API key of its own; the CLI handles authentication.
type ClaudeCLIProvider struct {
	cliPath string
	opts    Options
}

// NewClaudeCLIProvider creates a new Claude CLI provider.
func NewClaudeCLIProvider(opts Options) *ClaudeCLIProvider {
	return &ClaudeCLIProvider{opts: opts}
}

// Name returns the provider name
func (p *ClaudeCLIProvider) Name() string {
	return "claude-cli"
}

// Available checks if the claude CLI is on PATH.
func (p *ClaudeCLIProvider) Available() bool {
	if path, err := exec.LookPath("claude"); err == nil {
		p.cliPath = path
		return true
	}
	return false
}

// Parse converts natural language into a structured query.
func (p *ClaudeCLIProvider) Parse(ctx context.Context, text string) (*query.SearchQuery, error) {
	if !p.Available() {
		return nil, fmt.Errorf("%w: claude CLI not found on PATH", ErrNoAPIKey)
	}

	now := time.Now()
	prompt := systemPrompt(now) + "\n\nUser request: " + text

	response, err := p.run(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return DecodeResponse(response, now)
}

// run sends a prompt to the claude CLI and returns its stdout.
func (p *ClaudeCLIProvider) run(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.timeout())
	defer cancel()

	args := []string{"--print"}
	if p.opts.Model != "" {
		args = append(args, "--model", p.opts.Model)
	}

	cmd := exec.CommandContext(ctx, p.cliPath, args...)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.Canceled {
			return "", context.Canceled
		}
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: claude CLI took longer than %v", ErrLLMConnection, p.opts.timeout())
		}
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%w: %s", ErrLLMConnection, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%w: %v", ErrLLMConnection, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}
