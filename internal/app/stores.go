package app

import (
	"fmt"

	ksservice "leadgate/internal/killswitch/service"
	killswitchstore "leadgate/internal/killswitch/store"
	ledgerservice "leadgate/internal/ledger/service"
	ledgerstore "leadgate/internal/ledger/store"
	"leadgate/internal/ledger/workers/reaper"
	"leadgate/internal/platform/config"
	rlservice "leadgate/internal/ratelimit/service"
	"leadgate/internal/ratelimit/store/bucket"
	"leadgate/internal/ratelimit/workers/cleanup"
)

type ledgerStore interface {
	ledgerservice.Store
	reaper.Expirer
}

type stores struct {
	buckets rlservice.BucketStore
	// pruner is nil for backends that expire buckets on their own.
	pruner   cleanup.Pruner
	ledger   ledgerStore
	settings ksservice.Store
}

func selectStores(backend string, i *infra) (*stores, error) {
	switch backend {
	case config.BackendMemory, "":
		buckets := bucket.NewInMemoryBucketStore()
		return &stores{
			buckets:  buckets,
			pruner:   buckets,
			ledger:   ledgerstore.NewInMemory(),
			settings: killswitchstore.NewInMemory(),
		}, nil
	case config.BackendPostgres:
		if i.db == nil {
			return nil, fmt.Errorf("postgres backend selected but DATABASE_URL is unset")
		}
		buckets := bucket.NewPostgres(i.db.DB())
		return &stores{
			buckets:  buckets,
			pruner:   buckets,
			ledger:   ledgerstore.NewPostgres(i.db.DB()),
			settings: killswitchstore.NewPostgres(i.db.DB()),
		}, nil
	case config.BackendRedis:
		if i.redis == nil {
			return nil, fmt.Errorf("redis backend selected but REDIS_URL is unset")
		}
		return &stores{
			buckets:  bucket.NewRedis(i.redis.Client),
			ledger:   ledgerstore.NewRedis(i.redis.Client),
			settings: killswitchstore.NewRedis(i.redis.Client),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Interface checks for every backend.
var (
	_ ledgerStore = (*ledgerstore.InMemoryStore)(nil)
	_ ledgerStore = (*ledgerstore.PostgresStore)(nil)
	_ ledgerStore = (*ledgerstore.RedisStore)(nil)

	_ cleanup.Pruner = (*bucket.InMemoryBucketStore)(nil)
	_ cleanup.Pruner = (*bucket.PostgresBucketStore)(nil)
)
