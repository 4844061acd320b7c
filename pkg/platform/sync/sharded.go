// Package sync holds locking helpers for the in-process stores.
package sync

import (
	"hash/fnv"
	"sync"
)

const defaultShards = 32

// ShardedMutex spreads per-key critical sections over a fixed set of
// mutexes so unrelated keys rarely contend.
type ShardedMutex struct {
	shards []sync.Mutex
}

// NewShardedMutex creates a ShardedMutex with n shards, or 32 when n <= 0.
func NewShardedMutex(n ...int) *ShardedMutex {
	count := defaultShards
	if len(n) > 0 && n[0] > 0 {
		count = n[0]
	}
	return &ShardedMutex{shards: make([]sync.Mutex, count)}
}

// Lock acquires the lock for the key's shard.
func (m *ShardedMutex) Lock(key string) {
	m.shards[m.shardFor(key)].Lock()
}

// Unlock releases the lock for the key's shard.
func (m *ShardedMutex) Unlock(key string) {
	m.shards[m.shardFor(key)].Unlock()
}

// WithLock runs fn while holding the key's shard.
func (m *ShardedMutex) WithLock(key string, fn func()) {
	m.Lock(key)
	defer m.Unlock(key)
	fn()
}

func (m *ShardedMutex) shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(m.shards)))
}
