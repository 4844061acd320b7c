package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"leadgate/pkg/platform/sentinel"
)

// PostgresStore keeps the setting as a row in app_settings.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context) (*Setting, error) {
	var (
		value   string
		setting Setting
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT value, updated_by, updated_at FROM app_settings WHERE key = $1
	`, SettingKey).Scan(&value, &setting.UpdatedBy, &setting.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", SettingKey, err)
	}
	setting.Enabled, err = strconv.ParseBool(value)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", SettingKey, err)
	}
	return &setting, nil
}

func (s *PostgresStore) Set(ctx context.Context, setting Setting) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
	`, SettingKey, strconv.FormatBool(setting.Enabled), setting.UpdatedBy, setting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("set %s: %w", SettingKey, err)
	}
	return nil
}
