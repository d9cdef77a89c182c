// Package llm wraps the chat-completion providers used for report narrative
// generation. All calls are advisory: every caller carries a deterministic
// fallback, so providers run with a short timeout and zero retries.
package llm

import (
	"context"
	"errors"
	"os"
	"time"
)

// DefaultTimeout bounds every provider call. Narrative generation must never
// hold up report assembly.
const DefaultTimeout = 6 * time.Second

// ErrNotConfigured means the provider credential is missing. Callers route to
// fallback text without logging it as a dependency failure.
var ErrNotConfigured = errors.New("llm provider not configured")

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// New builds a provider from configuration. baseURL, model and timeout
// override the provider defaults when non-zero. Unknown or empty names return
// nil, which callers treat as LLM-disabled.
func New(name, baseURL, model string, timeout time.Duration) Provider {
	var p *ChatProvider
	switch name {
	case "deepseek":
		p = NewDeepSeek()
	case "openai":
		p = NewOpenAI()
	case "gemini":
		return &GeminiProvider{Model: model, Timeout: timeout}
	default:
		return nil
	}
	if baseURL != "" {
		p.BaseURL = baseURL
	}
	if model != "" {
		p.Model = model
	}
	p.Timeout = timeout
	return p
}

// FromEnv picks a provider from LLM_PROVIDER with the provider defaults.
func FromEnv() Provider {
	return New(os.Getenv("LLM_PROVIDER"), "", "", 0)
}
