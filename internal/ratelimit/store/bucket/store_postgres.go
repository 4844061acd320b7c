package bucket

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresBucketStore persists one row per recorded attempt.
type PostgresBucketStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed bucket store.
func NewPostgres(db *sql.DB) *PostgresBucketStore {
	return &PostgresBucketStore{db: db}
}

// CheckAndRecord serializes callers per key with a transaction-scoped
// advisory lock, then prunes, counts and conditionally inserts.
func (s *PostgresBucketStore) CheckAndRecord(ctx context.Context, key string, maxRequests int, window time.Duration, now time.Time) (bool, error) {
	if err := validateArgs(key, maxRequests, window); err != nil {
		return false, err
	}
	cutoff := now.Add(-window)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin rate limit tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1)::bigint)`, key); err != nil {
		return false, fmt.Errorf("acquire rate limit lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE key = $1 AND occurred_at <= $2`, key, cutoff); err != nil {
		return false, fmt.Errorf("prune rate limit events: %w", err)
	}

	var current int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM rate_limit_events WHERE key = $1`, key).Scan(&current); err != nil {
		return false, fmt.Errorf("count rate limit events: %w", err)
	}
	exceeded := current >= maxRequests
	if !exceeded {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rate_limit_events (key, occurred_at, window_seconds)
			VALUES ($1, $2, $3)
		`, key, now, int(window.Seconds())); err != nil {
			return false, fmt.Errorf("insert rate limit event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit rate limit tx: %w", err)
	}
	return exceeded, nil
}

// Prune removes events that fell out of their own window.
func (s *PostgresBucketStore) Prune(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM rate_limit_events
		WHERE occurred_at + make_interval(secs => window_seconds) <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("prune rate limit events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rate limit events: %w", err)
	}
	return int(n), nil
}
