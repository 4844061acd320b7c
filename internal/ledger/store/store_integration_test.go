//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leadgate/internal/ledger/models"
	"leadgate/internal/ledger/store"
	"leadgate/pkg/platform/sentinel"
	"leadgate/pkg/testutil"
	"leadgate/pkg/testutil/containers"
)

type ledgerStore interface {
	Save(ctx context.Context, t *models.Token) error
	Find(ctx context.Context, code string) (*models.Token, error)
	Execute(ctx context.Context, code string, fn store.ExecuteFunc) error
}

type LedgerStoreIntegrationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redis    *containers.RedisContainer
	stores   map[string]ledgerStore
}

func TestLedgerStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(LedgerStoreIntegrationSuite))
}

func (s *LedgerStoreIntegrationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redis = mgr.GetRedis(s.T())
	s.stores = map[string]ledgerStore{
		"postgres": store.NewPostgres(s.postgres.DB),
		"redis":    store.NewRedis(s.redis.Client),
	}
}

func (s *LedgerStoreIntegrationSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "ledger_submissions"))
	s.Require().NoError(s.redis.Flush(ctx))
}

func token(code string) *models.Token {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Token{
		Code:           code,
		Email:          testutil.LeadEmail,
		Phone:          testutil.LeadPhone,
		RequiredRoutes: models.CallRequestFlow,
		ConsumedBy:     []models.Route{},
		CreatedAt:      now,
		ExpiresAt:      now.Add(5 * time.Minute),
	}
}

func (s *LedgerStoreIntegrationSuite) TestRoundTrip() {
	ctx := context.Background()
	for name, st := range s.stores {
		s.Run(name, func() {
			tok := token("sub_roundtrip")
			s.Require().NoError(st.Save(ctx, tok))
			s.ErrorIs(st.Save(ctx, tok), sentinel.ErrConflict)

			got, err := st.Find(ctx, tok.Code)
			s.Require().NoError(err)
			s.Equal(tok.Email, got.Email)
			s.Equal(tok.RequiredRoutes, got.RequiredRoutes)
			s.True(tok.ExpiresAt.Equal(got.ExpiresAt))
		})
	}
}

func (s *LedgerStoreIntegrationSuite) TestExecuteUpdateThenDelete() {
	ctx := context.Background()
	for name, st := range s.stores {
		s.Run(name, func() {
			tok := token("sub_execute")
			s.Require().NoError(st.Save(ctx, tok))

			s.Require().NoError(st.Execute(ctx, tok.Code, func(t *models.Token) (models.Action, error) {
				t.Consume(models.RouteCRM)
				return models.ActionUpdate, nil
			}))
			got, err := st.Find(ctx, tok.Code)
			s.Require().NoError(err)
			s.Equal([]models.Route{models.RouteCRM}, got.ConsumedBy)

			s.Require().NoError(st.Execute(ctx, tok.Code, func(t *models.Token) (models.Action, error) {
				t.Reserve(models.RouteCallDispatch)
				return models.ActionUpdate, nil
			}))
			got, err = st.Find(ctx, tok.Code)
			s.Require().NoError(err)
			s.Equal([]models.Route{models.RouteCallDispatch}, got.Pending)

			rejected := errors.New("expired")
			err = st.Execute(ctx, tok.Code, func(*models.Token) (models.Action, error) {
				return models.ActionDelete, rejected
			})
			s.ErrorIs(err, rejected)

			_, err = st.Find(ctx, tok.Code)
			s.ErrorIs(err, sentinel.ErrNotFound)
		})
	}
}

func (s *LedgerStoreIntegrationSuite) TestConcurrentConsumeSucceedsAtMostOnce() {
	ctx := context.Background()
	alreadyConsumed := errors.New("already consumed")
	for name, st := range s.stores {
		s.Run(name, func() {
			tok := token("sub_race")
			s.Require().NoError(st.Save(ctx, tok))

			result := testutil.RunConcurrent(20, alreadyConsumed, func(int) error {
				return st.Execute(ctx, tok.Code, func(t *models.Token) (models.Action, error) {
					if t.IsConsumed(models.RouteCRM) {
						return models.ActionKeep, alreadyConsumed
					}
					t.Consume(models.RouteCRM)
					return models.ActionUpdate, nil
				})
			})

			// Redis aborts losing WATCH transactions with ErrConflict instead of
			// serializing them, so only the success count is exact.
			s.Equal(int32(1), result.Successes)
		})
	}
}
