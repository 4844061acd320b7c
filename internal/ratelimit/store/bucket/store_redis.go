package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "leadgate:rl:"

// checkAndRecordScript prunes the sorted set, rejects without recording when
// the window is full, otherwise adds the attempt. Scores are unix millis.
var checkAndRecordScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= max then
	return 1
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 0
`)

// RedisBucketStore keeps each window in a sorted set. Keys expire with the
// window, so no cleanup worker is needed.
type RedisBucketStore struct {
	client redis.UniversalClient
}

// NewRedis constructs a Redis-backed bucket store.
func NewRedis(client redis.UniversalClient) *RedisBucketStore {
	return &RedisBucketStore{client: client}
}

func (s *RedisBucketStore) CheckAndRecord(ctx context.Context, key string, maxRequests int, window time.Duration, now time.Time) (bool, error) {
	if err := validateArgs(key, maxRequests, window); err != nil {
		return false, err
	}

	nowMs := now.UnixMilli()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())
	res, err := checkAndRecordScript.Run(ctx, s.client,
		[]string{redisKeyPrefix + key},
		nowMs, window.Milliseconds(), maxRequests, member,
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis check and record: %w", err)
	}
	return res == 1, nil
}
