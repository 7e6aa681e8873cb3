// Package store persists users, their interests, and the game similarity
// cache in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Candidate is a recently active user considered for matching.
type Candidate struct {
	UserID    string
	Username  string
	Interests []string
}

// Store wraps the PostgreSQL connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, url string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("store")

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Debug("connected to database")
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// SaveInterests upserts a user's interest list and refreshes last_active.
func (s *Store) SaveInterests(ctx context.Context, userID, username string, interests []string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (user_id, username, interests, last_active)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			interests = EXCLUDED.interests,
			last_active = now()
	`, userID, username, interests)
	if err != nil {
		return fmt.Errorf("failed to save interests for %s: %w", userID, err)
	}

	s.logger.Debug("saved interests",
		zap.String("user_id", userID),
		zap.Int("count", len(interests)))
	return nil
}

// ActiveCandidates returns users other than excludeID whose last activity is
// within the given window.
func (s *Store) ActiveCandidates(ctx context.Context, excludeID string, window time.Duration) ([]Candidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, username, interests
		FROM users
		WHERE user_id != $1
		AND last_active > now() - make_interval(secs => $2)
	`, excludeID, window.Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.UserID, &c.Username, &c.Interests); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}

	return candidates, nil
}

// CachedSimilarity returns the cached score for a game pair, or nil when the
// pair has not been scored yet.
func (s *Store) CachedSimilarity(ctx context.Context, gameA, gameB string) (*float64, error) {
	a, b := pairKey(gameA, gameB)

	var score float64
	err := s.pool.QueryRow(ctx, `
		SELECT similarity
		FROM game_similarities
		WHERE game_a = $1 AND game_b = $2
	`, a, b).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read similarity cache: %w", err)
	}
	return &score, nil
}

// CacheSimilarity stores a pair score. An existing row wins; two concurrent
// judgments of the same pair are close enough that either is fine to keep.
func (s *Store) CacheSimilarity(ctx context.Context, gameA, gameB string, score float64) error {
	a, b := pairKey(gameA, gameB)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO game_similarities (game_a, game_b, similarity)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, a, b, score)
	if err != nil {
		return fmt.Errorf("failed to cache similarity: %w", err)
	}
	return nil
}

// pairKey canonicalizes a game pair so one cache row serves both lookup
// directions.
func pairKey(gameA, gameB string) (string, string) {
	if gameB < gameA {
		return gameB, gameA
	}
	return gameA, gameB
}
