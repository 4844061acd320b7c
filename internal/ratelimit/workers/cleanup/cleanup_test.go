package cleanup

// These run the worker against the real in-memory store with a fake clock;
// waiting out an hour-long window is not something an e2e scenario can do.

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leadgate/internal/ratelimit/store/bucket"
	"leadgate/pkg/testutil"
)

type failingPruner struct{ err error }

func (f failingPruner) Prune(context.Context, time.Time) (int, error) { return 0, f.err }

type CleanupSuite struct {
	suite.Suite
	store   *bucket.InMemoryBucketStore
	clock   *testutil.Clock
	service *Service
}

func TestCleanupSuite(t *testing.T) {
	suite.Run(t, new(CleanupSuite))
}

func (s *CleanupSuite) SetupTest() {
	s.store = bucket.NewInMemoryBucketStore()
	s.clock = testutil.NewClock()
	svc, err := New(s.store,
		WithClock(s.clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *CleanupSuite) TestRunOnceDropsOnlyExpiredBuckets() {
	ctx := context.Background()
	_, err := s.store.CheckAndRecord(ctx, "ip:a:short", 3, time.Minute, s.clock.Now())
	s.Require().NoError(err)
	_, err = s.store.CheckAndRecord(ctx, "ip:a:long", 5, time.Hour, s.clock.Now())
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Minute)
	res, err := s.service.RunOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, res.Pruned)

	s.clock.Advance(time.Hour)
	res, err = s.service.RunOnce(ctx)
	s.Require().NoError(err)
	s.Equal(1, res.Pruned, "the long-window bucket survived the first pass")

	res, err = s.service.RunOnce(ctx)
	s.Require().NoError(err)
	s.Zero(res.Pruned)
}

func (s *CleanupSuite) TestRunOncePropagatesStoreError() {
	svc, err := New(failingPruner{err: errors.New("boom")})
	s.Require().NoError(err)

	_, err = svc.RunOnce(context.Background())
	s.EqualError(err, "boom")
}

func (s *CleanupSuite) TestStartStopsOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	svc, err := New(s.store, WithInterval(time.Millisecond), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)

	go func() { done <- svc.Start(ctx) }()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("worker did not stop")
	}
}

func (s *CleanupSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}
