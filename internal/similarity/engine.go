// Package similarity scores how alike two games are, caching LLM judgments
// in the database so each pair is only ever scored once.
package similarity

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"partyup/internal/llm"
)

const scoreSystemPrompt = "You are a game analysis expert. Please evaluate the similarity (0-1) of the following two games, " +
	"considering type, gameplay, art style, etc., and return the number directly."

// Cache is the persistence layer for pair scores. *store.Store satisfies it.
type Cache interface {
	CachedSimilarity(ctx context.Context, gameA, gameB string) (*float64, error)
	CacheSimilarity(ctx context.Context, gameA, gameB string, score float64) error
}

// Engine scores game pairs. LLM or parse failures degrade to a zero score
// rather than aborting the surrounding match pass.
type Engine struct {
	client       llm.Client
	cache        Cache
	logger       *zap.Logger
	writeTimeout time.Duration

	wg sync.WaitGroup
}

// NewEngine creates an Engine.
func NewEngine(client llm.Client, cache Cache, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client:       client,
		cache:        cache,
		logger:       logger.Named("similarity"),
		writeTimeout: 10 * time.Second,
	}
}

// Score returns a similarity in [0,1] for the pair. Cached values are
// returned directly; fresh judgments are written back in the background so
// the caller is not blocked on the insert.
func (e *Engine) Score(ctx context.Context, gameA, gameB string) (float64, error) {
	if strings.EqualFold(gameA, gameB) {
		return 1.0, nil
	}

	cached, err := e.cache.CachedSimilarity(ctx, gameA, gameB)
	if err != nil {
		// Treat a failed lookup as a miss.
		e.logger.Warn("cache lookup failed",
			zap.String("game_a", gameA),
			zap.String("game_b", gameB),
			zap.Error(err))
	}
	if cached != nil {
		return *cached, nil
	}

	raw, err := e.client.Complete(ctx, llm.Prompt{
		System:      scoreSystemPrompt,
		User:        "The similarity score between '" + gameA + "' and '" + gameB + "' is:",
		Temperature: 0.2,
	})
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		e.logger.Warn("similarity judgment failed",
			zap.String("game_a", gameA),
			zap.String("game_b", gameB),
			zap.Error(err))
		return 0, nil
	}

	score, ok := parseScore(raw)
	if !ok {
		e.logger.Warn("unparseable similarity response",
			zap.String("game_a", gameA),
			zap.String("game_b", gameB),
			zap.String("response", raw))
		return 0, nil
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		// Detached from the request context so cancellation of one match
		// pass does not lose the judgment.
		wctx, cancel := context.WithTimeout(context.Background(), e.writeTimeout)
		defer cancel()
		if err := e.cache.CacheSimilarity(wctx, gameA, gameB, score); err != nil {
			e.logger.Warn("cache write failed",
				zap.String("game_a", gameA),
				zap.String("game_b", gameB),
				zap.Error(err))
		}
	}()

	return score, nil
}

// Wait blocks until all background cache writes have finished. Called on
// shutdown and by tests.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// parseScore extracts a clamped [0,1] float from the model output. Models
// occasionally wrap the number in prose; take the first parseable token.
func parseScore(raw string) (float64, bool) {
	for _, tok := range strings.Fields(strings.TrimSpace(raw)) {
		tok = strings.Trim(tok, ".,;:")
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return v, true
	}
	return 0, false
}
