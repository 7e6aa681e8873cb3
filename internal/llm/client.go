// Package llm provides the chat-completions client used for interest
// extraction, game similarity scoring, and match reason generation.
package llm

import (
	"context"
	"time"
)

// Prompt is a single chat-completion request. Temperature and MaxTokens are
// set per call site; a zero MaxTokens uses the client default.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Client defines the interface for chat-completion providers.
type Client interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Config holds configuration for the OpenAI-compatible client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
		Timeout: 60 * time.Second,
	}
}
