package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"leadgate/internal/ledger/models"
	"leadgate/pkg/platform/sentinel"
)

const tokenKeyPrefix = "leadgate:ledger:"

type tokenJSON struct {
	Code           string         `json:"code"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	RequiredRoutes []models.Route `json:"required_routes"`
	ConsumedBy     []models.Route `json:"consumed_by"`
	Pending        []models.Route `json:"pending,omitempty"`
	CreatedAt      int64          `json:"created_at"` // Unix nano
	ExpiresAt      int64          `json:"expires_at"` // Unix nano
}

func toJSON(t *models.Token) ([]byte, error) {
	return json.Marshal(tokenJSON{
		Code:           t.Code,
		Email:          t.Email,
		Phone:          t.Phone,
		RequiredRoutes: nonNil(t.RequiredRoutes),
		ConsumedBy:     nonNil(t.ConsumedBy),
		Pending:        t.Pending,
		CreatedAt:      t.CreatedAt.UnixNano(),
		ExpiresAt:      t.ExpiresAt.UnixNano(),
	})
}

func fromJSON(data string) (*models.Token, error) {
	var j tokenJSON
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, fmt.Errorf("unmarshal submission token: %w", err)
	}
	return &models.Token{
		Code:           j.Code,
		Email:          j.Email,
		Phone:          j.Phone,
		RequiredRoutes: j.RequiredRoutes,
		ConsumedBy:     j.ConsumedBy,
		Pending:        j.Pending,
		CreatedAt:      time.Unix(0, j.CreatedAt).UTC(),
		ExpiresAt:      time.Unix(0, j.ExpiresAt).UTC(),
	}, nil
}

// RedisStore keeps each token as a JSON string whose key expires with the
// token, so no reaper pass is needed.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func tokenKey(code string) string { return tokenKeyPrefix + code }

// lifetime is the time left until t expires, never less than a second.
func lifetime(t *models.Token, now time.Time) time.Duration {
	if ttl := t.ExpiresAt.Sub(now); ttl > time.Second {
		return ttl
	}
	return time.Second
}

func (s *RedisStore) Save(ctx context.Context, t *models.Token) error {
	if t == nil || t.Code == "" {
		return sentinel.ErrInvalidInput
	}
	data, err := toJSON(t)
	if err != nil {
		return fmt.Errorf("marshal submission token: %w", err)
	}
	ok, err := s.client.SetNX(ctx, tokenKey(t.Code), data, lifetime(t, s.now())).Result()
	if err != nil {
		return fmt.Errorf("save submission token: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, code string) (*models.Token, error) {
	data, err := s.client.Get(ctx, tokenKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission token: %w", err)
	}
	return fromJSON(data)
}

// Execute runs fn inside a WATCH transaction. When another client modifies
// the key first, the transaction aborts and ErrConflict is returned without
// retrying.
func (s *RedisStore) Execute(ctx context.Context, code string, fn ExecuteFunc) error {
	key := tokenKey(code)
	var fnErr error

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get submission token for execute: %w", err)
		}
		t, err := fromJSON(data)
		if err != nil {
			return err
		}

		var action models.Action
		action, fnErr = fn(t)

		switch action {
		case models.ActionDelete:
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
		case models.ActionUpdate:
			updated, merr := toJSON(t)
			if merr != nil {
				return fmt.Errorf("marshal submission token: %w", merr)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.SetArgs(ctx, key, updated, redis.SetArgs{KeepTTL: true})
				return nil
			})
		}
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("submission token changed concurrently: %w", sentinel.ErrConflict)
	}
	if err != nil {
		return err
	}
	return fnErr
}

// DeleteExpired is a no-op; keys expire on their own.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
