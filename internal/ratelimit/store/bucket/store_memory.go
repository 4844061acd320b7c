package bucket

import (
	"context"
	"sync"
	"time"

	psync "leadgate/pkg/platform/sync"
)

// InMemoryBucketStore keeps sliding windows in process memory. Lookups,
// mutations and deletions of a key all happen under that key's shard lock.
type InMemoryBucketStore struct {
	locks   *psync.ShardedMutex
	buckets sync.Map // key -> *slidingWindow
}

// slidingWindow holds the recorded timestamps of one key, oldest first.
type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

// tryRecord prunes, then records now unless the window is already full.
// Rejected attempts are not recorded.
func (sw *slidingWindow) tryRecord(maxRequests int, now time.Time) (exceeded bool) {
	sw.prune(now)
	if len(sw.timestamps) >= maxRequests {
		return true
	}
	sw.timestamps = append(sw.timestamps, now)
	return false
}

func (sw *slidingWindow) prune(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// NewInMemoryBucketStore creates an empty store.
func NewInMemoryBucketStore() *InMemoryBucketStore {
	return &InMemoryBucketStore{locks: psync.NewShardedMutex()}
}

// CheckAndRecord applies one sliding-window check for key.
func (s *InMemoryBucketStore) CheckAndRecord(_ context.Context, key string, maxRequests int, window time.Duration, now time.Time) (bool, error) {
	if err := validateArgs(key, maxRequests, window); err != nil {
		return false, err
	}

	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	v, _ := s.buckets.LoadOrStore(key, &slidingWindow{window: window})
	sw := v.(*slidingWindow)
	sw.window = window
	return sw.tryRecord(maxRequests, now), nil
}

// Prune drops expired timestamps from every bucket and deletes the buckets
// left empty. Each key is locked only while it is examined.
func (s *InMemoryBucketStore) Prune(_ context.Context, now time.Time) (int, error) {
	var keys []string
	s.buckets.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})

	removed := 0
	for _, key := range keys {
		s.locks.WithLock(key, func() {
			v, ok := s.buckets.Load(key)
			if !ok {
				return
			}
			sw := v.(*slidingWindow)
			sw.prune(now)
			if len(sw.timestamps) == 0 {
				s.buckets.Delete(key)
				removed++
			}
		})
	}
	return removed, nil
}
