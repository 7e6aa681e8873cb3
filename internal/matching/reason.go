package matching

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"partyup/internal/llm"
)

// Fallback reasons when the LLM cannot produce one.
const (
	reasonFallbackGeneric  = "Recommended based on similar game interests"
	reasonFallbackCommon   = "Found common game interests"
	reasonFallbackGameplay = "These games may have similar gameplay features"
)

// reasonListCap limits how many interests are quoted in the prompt.
const reasonListCap = 5

// Reasoner writes the one-line explanation attached to each match card.
type Reasoner struct {
	client llm.Client
	logger *zap.Logger
}

// NewReasoner creates a Reasoner.
func NewReasoner(client llm.Client, logger *zap.Logger) *Reasoner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reasoner{
		client: client,
		logger: logger.Named("reason"),
	}
}

// Reason returns a short colloquial explanation of why the match fits. It
// never fails: any problem yields a canned fallback.
func (r *Reasoner) Reason(ctx context.Context, mine []string, match Match) string {
	if len(mine) == 0 || len(match.Interests) == 0 {
		return reasonFallbackGeneric
	}

	system := fmt.Sprintf(
		"You are a professional game matching analyst. Please explain the match reason in one sentence based on the following game interest lists:\n"+
			"My interests: %s\n"+
			"Their interests: %s\n"+
			"Analysis angles: game genre, gameplay mechanics, user profile, trends, etc.\n"+
			"Output requirement: Use colloquial English, no more than 20 words",
		strings.Join(capList(mine), ", "),
		strings.Join(capList(match.Interests), ", "))

	reply, err := r.client.Complete(ctx, llm.Prompt{
		System:      system,
		Temperature: 0.7,
		MaxTokens:   50,
	})
	if err != nil {
		r.logger.Warn("reason generation failed",
			zap.String("match_user_id", match.UserID),
			zap.Error(err))
		return reasonFallbackGameplay
	}
	if strings.TrimSpace(reply) == "" {
		return reasonFallbackCommon
	}
	return strings.TrimSpace(reply)
}

func capList(games []string) []string {
	if len(games) > reasonListCap {
		return games[:reasonListCap]
	}
	return games
}
