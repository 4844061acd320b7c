package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"leadgate/internal/platform/config"
)

// ErrNotConfigured is returned by Health on a pool that was never opened.
var ErrNotConfigured = errors.New("database not configured")

const defaultPingTimeout = 5 * time.Second

// Pool owns the *sql.DB shared by the Postgres bucket, ledger and settings stores.
type Pool struct {
	db *sql.DB
}

// New opens the pool, pings it and, when cfg.AutoMigrate is set, applies the
// embedded schema. Returns nil, nil when no URL is configured.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pool := &Pool{db: db}
	if err := pool.init(ctx, cfg); err != nil {
		_ = db.Close()
		return nil, err
	}
	return pool, nil
}

func (p *Pool) init(ctx context.Context, cfg config.DatabaseConfig) error {
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if !cfg.AutoMigrate {
		return nil
	}
	if _, err := Migrate(ctx, p.db, nil); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func (p *Pool) DB() *sql.DB {
	return p.db
}

// Health is registered as the "postgres" readiness check.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return ErrNotConfigured
	}
	return p.db.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
