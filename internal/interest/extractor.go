// Package interest turns free-form user messages into game interest keywords.
package interest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"partyup/internal/llm"
)

const extractSystemPrompt = "You are a game interest extraction assistant. Please extract the game or game genre keywords from the user message, " +
	"separated by commas. Return only keywords, no explanations.\n" +
	"Example input: 'I like playing Genshin Impact and Honor of Kings'\n" +
	"Example output: Genshin Impact, Honor of Kings"

// maxInterests caps the keyword list so one message cannot flood the
// matching pass with pairwise similarity calls.
const maxInterests = 20

// Extractor extracts interest keywords from user messages via the LLM.
type Extractor struct {
	client llm.Client
	logger *zap.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(client llm.Client, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		client: client,
		logger: logger.Named("interest"),
	}
}

// Extract returns the game/genre keywords found in text. A nil result with a
// nil error means the model recognized no interests; callers treat that as a
// user-facing notice, not a failure.
func (e *Extractor) Extract(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	raw, err := e.client.Complete(ctx, llm.Prompt{
		System:      extractSystemPrompt,
		User:        text,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("interest extraction failed: %w", err)
	}

	interests := splitKeywords(raw)
	e.logger.Debug("extracted interests",
		zap.Int("count", len(interests)),
		zap.Strings("interests", interests))
	return interests, nil
}

// splitKeywords splits a comma-separated keyword line, trimming whitespace,
// dropping empties, and de-duplicating while preserving order.
func splitKeywords(raw string) []string {
	// Some models echo fullwidth commas when the input mixed scripts.
	raw = strings.ReplaceAll(raw, "，", ",")

	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		kw := strings.TrimSpace(part)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
		if len(out) == maxInterests {
			break
		}
	}
	return out
}
