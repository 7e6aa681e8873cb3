package store

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
)

// openTestStore connects to the database named by PARTYUP_TEST_DATABASE_URL,
// or skips the test when it is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("PARTYUP_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PARTYUP_TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := Open(ctx, url, zap.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(s.Close)

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	// Start from a clean slate.
	if _, err := s.pool.Exec(ctx, "TRUNCATE users, game_similarities"); err != nil {
		t.Fatalf("truncate failed: %v", err)
	}

	return s
}

func TestStore_SaveInterests_Integration(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveInterests(ctx, "u1", "alice", []string{"Hades", "Celeste"}); err != nil {
		t.Fatalf("SaveInterests failed: %v", err)
	}

	// Upsert replaces the interest list.
	if err := s.SaveInterests(ctx, "u1", "alice", []string{"Hades"}); err != nil {
		t.Fatalf("SaveInterests upsert failed: %v", err)
	}

	candidates, err := s.ActiveCandidates(ctx, "someone-else", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("ActiveCandidates failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.UserID != "u1" || c.Username != "alice" {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if len(c.Interests) != 1 || c.Interests[0] != "Hades" {
		t.Errorf("expected upserted interests [Hades], got %v", c.Interests)
	}
}

func TestStore_ActiveCandidates_ExcludesRequester_Integration(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveInterests(ctx, "u1", "alice", []string{"Hades"}); err != nil {
		t.Fatalf("SaveInterests failed: %v", err)
	}
	if err := s.SaveInterests(ctx, "u2", "bob", []string{"Celeste"}); err != nil {
		t.Fatalf("SaveInterests failed: %v", err)
	}

	candidates, err := s.ActiveCandidates(ctx, "u1", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("ActiveCandidates failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].UserID != "u2" {
		t.Errorf("expected only u2, got %+v", candidates)
	}
}

func TestStore_SimilarityCache_Integration(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if cached, err := s.CachedSimilarity(ctx, "Valheim", "Rust"); err != nil || cached != nil {
		t.Fatalf("expected empty cache, got %v, %v", cached, err)
	}

	if err := s.CacheSimilarity(ctx, "Valheim", "Rust", 0.8); err != nil {
		t.Fatalf("CacheSimilarity failed: %v", err)
	}

	// Lookup works in both directions.
	for _, pair := range [][2]string{{"Valheim", "Rust"}, {"Rust", "Valheim"}} {
		cached, err := s.CachedSimilarity(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("CachedSimilarity failed: %v", err)
		}
		if cached == nil || *cached != 0.8 {
			t.Errorf("expected 0.8 for %v, got %v", pair, cached)
		}
	}

	// Second insert for the same pair is a no-op, not an error.
	if err := s.CacheSimilarity(ctx, "Rust", "Valheim", 0.2); err != nil {
		t.Fatalf("duplicate CacheSimilarity failed: %v", err)
	}
	cached, err := s.CachedSimilarity(ctx, "Valheim", "Rust")
	if err != nil {
		t.Fatalf("CachedSimilarity failed: %v", err)
	}
	if cached == nil || *cached != 0.8 {
		t.Errorf("expected first score to win, got %v", cached)
	}
}

func TestStore_Migrate_Idempotent_Integration(t *testing.T) {
	s := openTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}
