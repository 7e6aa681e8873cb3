package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// schema creates the base tables. Safe to run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT,
		interests TEXT[],
		last_active TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS game_similarities (
		game_a TEXT,
		game_b TEXT,
		similarity DOUBLE PRECISION CHECK (similarity BETWEEN 0 AND 1),
		scored_at TIMESTAMPTZ DEFAULT now(),
		PRIMARY KEY (game_a, game_b)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_interests ON users USING GIN (interests)`,
	`CREATE INDEX IF NOT EXISTS idx_users_last_active ON users (last_active)`,
}

// Migration defines an additive column migration.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations lists columns added after launch. These handle databases
// created before the column existed in the base schema.
var pendingMigrations = []Migration{
	// Activity window tracking (added for the 7-day candidate filter)
	{"users", "last_active", "TIMESTAMPTZ DEFAULT now()"},
	// Cache row provenance (added for cache aging / manual cleanup)
	{"game_similarities", "scored_at", "TIMESTAMPTZ DEFAULT now()"},
}

// Migrate creates the schema and applies pending column migrations.
func (s *Store) Migrate(ctx context.Context) error {
	s.logger.Info("running schema setup",
		zap.Int("statements", len(schema)),
		zap.Int("pending_migrations", len(pendingMigrations)))

	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema setup failed: %w", err)
		}
	}

	applied := 0
	for _, m := range pendingMigrations {
		exists, err := s.columnExists(ctx, m.Table, m.Column)
		if err != nil {
			return fmt.Errorf("migration check failed for %s.%s: %w", m.Table, m.Column, err)
		}
		if exists {
			continue
		}

		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := s.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("migration failed for %s.%s: %w", m.Table, m.Column, err)
		}
		s.logger.Info("migration applied",
			zap.String("table", m.Table),
			zap.String("column", m.Column))
		applied++
	}

	s.logger.Info("schema setup complete", zap.Int("migrations_applied", applied))
	return nil
}

func (s *Store) columnExists(ctx context.Context, table, column string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = $1 AND column_name = $2
		)
	`, table, column).Scan(&exists)
	return exists, err
}
