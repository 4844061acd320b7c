//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leadgate/internal/killswitch/store"
	"leadgate/pkg/platform/sentinel"
	"leadgate/pkg/testutil/containers"
)

type settingStore interface {
	Get(ctx context.Context) (*store.Setting, error)
	Set(ctx context.Context, setting store.Setting) error
}

type SettingStoreIntegrationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redis    *containers.RedisContainer
	stores   map[string]settingStore
}

func TestSettingStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SettingStoreIntegrationSuite))
}

func (s *SettingStoreIntegrationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redis = mgr.GetRedis(s.T())
	s.stores = map[string]settingStore{
		"postgres": store.NewPostgres(s.postgres.DB),
		"redis":    store.NewRedis(s.redis.Client),
	}
}

func (s *SettingStoreIntegrationSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "app_settings"))
	s.Require().NoError(s.redis.Flush(ctx))
}

func (s *SettingStoreIntegrationSuite) TestMissingThenUpsert() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	for name, st := range s.stores {
		s.Run(name, func() {
			_, err := st.Get(ctx)
			s.ErrorIs(err, sentinel.ErrNotFound)

			s.Require().NoError(st.Set(ctx, store.Setting{Enabled: false, UpdatedBy: "ops", UpdatedAt: now}))
			s.Require().NoError(st.Set(ctx, store.Setting{Enabled: true, UpdatedBy: "ops2", UpdatedAt: now}))

			got, err := st.Get(ctx)
			s.Require().NoError(err)
			s.True(got.Enabled)
			s.Equal("ops2", got.UpdatedBy)
			s.True(now.Equal(got.UpdatedAt))
		})
	}
}
