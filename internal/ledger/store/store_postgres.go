package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"leadgate/internal/ledger/models"
	"leadgate/pkg/platform/sentinel"
)

// PostgresStore persists tokens in ledger_submissions.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, t *models.Token) error {
	if t == nil || t.Code == "" {
		return sentinel.ErrInvalidInput
	}
	routes, err := encodeRoutes(t)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ledger_submissions (code, email, phone, required_routes, consumed_by, pending_routes, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.Code, t.Email, t.Phone, routes.required, routes.consumed, routes.pending, t.CreatedAt, t.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert submission token: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, code string) (*models.Token, error) {
	t, err := scanToken(s.db.QueryRowContext(ctx, selectToken+` WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find submission token: %w", err)
	}
	return t, nil
}

// Execute locks the row for the duration of fn and applies its action in the
// same transaction. The action is committed even when fn returns an error.
func (s *PostgresStore) Execute(ctx context.Context, code string, fn ExecuteFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	t, err := scanToken(tx.QueryRowContext(ctx, selectToken+` WHERE code = $1 FOR UPDATE`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock submission token: %w", err)
	}

	action, fnErr := fn(t)
	switch action {
	case models.ActionDelete:
		if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_submissions WHERE code = $1`, code); err != nil {
			return fmt.Errorf("delete submission token: %w", err)
		}
	case models.ActionUpdate:
		routes, err := encodeRoutes(t)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE ledger_submissions SET consumed_by = $2, pending_routes = $3 WHERE code = $1`,
			code, routes.consumed, routes.pending); err != nil {
			return fmt.Errorf("update submission token: %w", err)
		}
	case models.ActionKeep:
		return fnErr
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return fnErr
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ledger_submissions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired submission tokens: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired submission tokens rows: %w", err)
	}
	return int(rows), nil
}

const selectToken = `
	SELECT code, email, phone, required_routes, consumed_by, pending_routes, created_at, expires_at
	FROM ledger_submissions`

type tokenRow interface {
	Scan(dest ...any) error
}

func scanToken(row tokenRow) (*models.Token, error) {
	var t models.Token
	var required, consumed, pending []byte
	if err := row.Scan(&t.Code, &t.Email, &t.Phone, &required, &consumed, &pending, &t.CreatedAt, &t.ExpiresAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(required, &t.RequiredRoutes); err != nil {
		return nil, fmt.Errorf("decode required routes: %w", err)
	}
	if err := json.Unmarshal(consumed, &t.ConsumedBy); err != nil {
		return nil, fmt.Errorf("decode consumed routes: %w", err)
	}
	if err := json.Unmarshal(pending, &t.Pending); err != nil {
		return nil, fmt.Errorf("decode pending routes: %w", err)
	}
	return &t, nil
}

type encodedRoutes struct {
	required, consumed, pending []byte
}

func encodeRoutes(t *models.Token) (encodedRoutes, error) {
	var out encodedRoutes
	var err error
	if out.required, err = json.Marshal(nonNil(t.RequiredRoutes)); err != nil {
		return out, fmt.Errorf("encode required routes: %w", err)
	}
	if out.consumed, err = json.Marshal(nonNil(t.ConsumedBy)); err != nil {
		return out, fmt.Errorf("encode consumed routes: %w", err)
	}
	if out.pending, err = json.Marshal(nonNil(t.Pending)); err != nil {
		return out, fmt.Errorf("encode pending routes: %w", err)
	}
	return out, nil
}

func nonNil(r []models.Route) []models.Route {
	if r == nil {
		return []models.Route{}
	}
	return r
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
