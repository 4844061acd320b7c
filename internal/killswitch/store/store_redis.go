package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"leadgate/pkg/platform/sentinel"
)

const redisKey = "leadgate:settings:" + SettingKey

// RedisStore keeps the setting in a hash with no expiry.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context) (*Setting, error) {
	fields, err := s.client.HGetAll(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", SettingKey, err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}
	enabled, err := strconv.ParseBool(fields["enabled"])
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", SettingKey, err)
	}
	setting := &Setting{Enabled: enabled, UpdatedBy: fields["updated_by"]}
	if ts, err := strconv.ParseInt(fields["updated_at"], 10, 64); err == nil {
		setting.UpdatedAt = time.Unix(0, ts).UTC()
	}
	return setting, nil
}

func (s *RedisStore) Set(ctx context.Context, setting Setting) error {
	err := s.client.HSet(ctx, redisKey,
		"enabled", strconv.FormatBool(setting.Enabled),
		"updated_by", setting.UpdatedBy,
		"updated_at", strconv.FormatInt(setting.UpdatedAt.UnixNano(), 10),
	).Err()
	if err != nil {
		return fmt.Errorf("set %s: %w", SettingKey, err)
	}
	return nil
}
