// Package matching scores recently active users against a player's interest
// list and surfaces the best partners.
package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"partyup/internal/store"
)

// Match is a scored candidate.
type Match struct {
	UserID      string
	Username    string
	Score       float64
	CommonGames []string
	Interests   []string
}

// CandidateSource lists recently active users. *store.Store satisfies it.
type CandidateSource interface {
	ActiveCandidates(ctx context.Context, excludeID string, window time.Duration) ([]store.Candidate, error)
}

// PairScorer scores a single game pair. *similarity.Engine satisfies it.
type PairScorer interface {
	Score(ctx context.Context, gameA, gameB string) (float64, error)
}

// Options tunes a Matcher.
type Options struct {
	Threshold         float64       // minimum candidate score to surface
	MinPairSimilarity float64       // ignore cross-game pairs below this
	MaxMatches        int           // result cap
	MaxParallel       int           // concurrent candidate scoring
	CandidateWindow   time.Duration // how far back a user counts as active
}

// DefaultOptions mirrors the production tuning.
func DefaultOptions() Options {
	return Options{
		Threshold:         0.6,
		MinPairSimilarity: 0.4,
		MaxMatches:        10,
		MaxParallel:       8,
		CandidateWindow:   7 * 24 * time.Hour,
	}
}

// Matcher finds game partners for a user.
type Matcher struct {
	candidates CandidateSource
	scorer     PairScorer
	opts       Options
	logger     *zap.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(candidates CandidateSource, scorer PairScorer, opts Options, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxMatches <= 0 {
		opts.MaxMatches = DefaultOptions().MaxMatches
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = DefaultOptions().MaxParallel
	}
	if opts.CandidateWindow <= 0 {
		opts.CandidateWindow = DefaultOptions().CandidateWindow
	}
	return &Matcher{
		candidates: candidates,
		scorer:     scorer,
		opts:       opts,
		logger:     logger.Named("matching"),
	}
}

// FindMatches scores all active candidates against the user's interests and
// returns those at or above the threshold, best first.
func (m *Matcher) FindMatches(ctx context.Context, userID string, interests []string) ([]Match, error) {
	if len(interests) == 0 {
		return nil, nil
	}

	candidates, err := m.candidates.ActiveCandidates(ctx, userID, m.opts.CandidateWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	start := time.Now()
	results := make([]Match, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.MaxParallel)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			match, err := m.scoreCandidate(gctx, interests, c)
			if err != nil {
				return err
			}
			results[i] = match
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := results[:0:0]
	for _, r := range results {
		if r.Score >= m.opts.Threshold {
			matches = append(matches, r)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > m.opts.MaxMatches {
		matches = matches[:m.opts.MaxMatches]
	}

	m.logger.Debug("match pass complete",
		zap.String("user_id", userID),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)),
		zap.Duration("elapsed", time.Since(start)))
	return matches, nil
}

// scoreCandidate computes a candidate's score: exact common games count 1.0
// each, remaining cross pairs contribute their similarity when it clears the
// floor, and the total is averaged over scored pairs.
func (m *Matcher) scoreCandidate(ctx context.Context, interests []string, c store.Candidate) (Match, error) {
	mine := make(map[string]struct{}, len(interests))
	for _, g := range interests {
		mine[g] = struct{}{}
	}

	// Rows written before extraction de-duplicated may repeat a game;
	// duplicates would inflate the pair counts.
	theirs := dedupe(c.Interests)

	var common []string
	for _, g := range theirs {
		if _, ok := mine[g]; ok {
			common = append(common, g)
		}
	}

	isCommon := make(map[string]struct{}, len(common))
	for _, g := range common {
		isCommon[g] = struct{}{}
	}

	total := float64(len(common))
	pairs := len(common)

	for _, a := range interests {
		if _, ok := isCommon[a]; ok {
			continue
		}
		for _, b := range theirs {
			if _, ok := isCommon[b]; ok {
				continue
			}
			s, err := m.scorer.Score(ctx, a, b)
			if err != nil {
				if ctx.Err() != nil {
					return Match{}, ctx.Err()
				}
				m.logger.Warn("pair scoring failed",
					zap.String("game_a", a),
					zap.String("game_b", b),
					zap.Error(err))
				continue
			}
			if s >= m.opts.MinPairSimilarity {
				total += s
				pairs++
			}
		}
	}

	score := 0.0
	if pairs > 0 {
		score = math.Round(total/float64(pairs)*100) / 100
	}

	return Match{
		UserID:      c.UserID,
		Username:    c.Username,
		Score:       score,
		CommonGames: common,
		Interests:   theirs,
	}, nil
}

func dedupe(games []string) []string {
	seen := make(map[string]struct{}, len(games))
	out := games[:0:0]
	for _, g := range games {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
