package bucket

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"leadgate/pkg/platform/sentinel"
	"leadgate/pkg/testutil"
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	ctx   context.Context
	t0    time.Time
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.store = NewInMemoryBucketStore()
	s.ctx = context.Background()
	s.t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryBucketStoreSuite) check(key string, maxRequests int, window time.Duration, at time.Time) bool {
	exceeded, err := s.store.CheckAndRecord(s.ctx, key, maxRequests, window, at)
	s.Require().NoError(err)
	return exceeded
}

func (s *InMemoryBucketStoreSuite) TestAllowsUpToMaxThenRejects() {
	for i := range 3 {
		s.False(s.check("ip:a", 3, time.Minute, s.t0.Add(time.Duration(i)*time.Second)), "attempt %d", i+1)
	}
	s.True(s.check("ip:a", 3, time.Minute, s.t0.Add(5*time.Second)))
}

func (s *InMemoryBucketStoreSuite) TestRejectedAttemptsAreNotRecorded() {
	for range 3 {
		s.check("ip:a", 3, time.Minute, s.t0)
	}
	for range 10 {
		s.True(s.check("ip:a", 3, time.Minute, s.t0.Add(30*time.Second)))
	}

	// The three accepted attempts expire together; hammering did not extend the block.
	s.False(s.check("ip:a", 3, time.Minute, s.t0.Add(61*time.Second)))
}

func (s *InMemoryBucketStoreSuite) TestWindowSlides() {
	s.check("ip:a", 2, time.Minute, s.t0)
	s.check("ip:a", 2, time.Minute, s.t0.Add(40*time.Second))
	s.True(s.check("ip:a", 2, time.Minute, s.t0.Add(59*time.Second)))

	// The first timestamp leaves the window exactly at t0+60s.
	s.False(s.check("ip:a", 2, time.Minute, s.t0.Add(60*time.Second)))
	s.True(s.check("ip:a", 2, time.Minute, s.t0.Add(61*time.Second)))
}

func (s *InMemoryBucketStoreSuite) TestKeysAreIndependent() {
	s.check("email:a@x.io", 1, time.Hour, s.t0)
	s.True(s.check("email:a@x.io", 1, time.Hour, s.t0))
	s.False(s.check("email:b@x.io", 1, time.Hour, s.t0))
}

func (s *InMemoryBucketStoreSuite) TestInvalidArguments() {
	_, err := s.store.CheckAndRecord(s.ctx, "", 3, time.Minute, s.t0)
	s.ErrorIs(err, sentinel.ErrInvalidInput)
	_, err = s.store.CheckAndRecord(s.ctx, "k", 0, time.Minute, s.t0)
	s.ErrorIs(err, sentinel.ErrInvalidInput)
	_, err = s.store.CheckAndRecord(s.ctx, "k", 3, 0, s.t0)
	s.ErrorIs(err, sentinel.ErrInvalidInput)
}

func (s *InMemoryBucketStoreSuite) TestPruneDropsEmptyBuckets() {
	s.check("ip:old", 3, time.Minute, s.t0)
	s.check("ip:new", 3, time.Minute, s.t0.Add(50*time.Second))

	removed, err := s.store.Prune(s.ctx, s.t0.Add(90*time.Second))
	s.Require().NoError(err)
	s.Equal(1, removed)

	// ip:new kept its attempt: one more fits under a limit of two, a third does not.
	s.False(s.check("ip:new", 2, time.Minute, s.t0.Add(90*time.Second)))
	s.True(s.check("ip:new", 2, time.Minute, s.t0.Add(90*time.Second)))

	removed, err = s.store.Prune(s.ctx, s.t0.Add(90*time.Second))
	s.Require().NoError(err)
	s.Zero(removed)
}

func TestInMemoryBucketStoreConcurrentNeverExceedsMax(t *testing.T) {
	store := NewInMemoryBucketStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	errExceeded := fmt.Errorf("exceeded")
	result := testutil.RunConcurrent(50, errExceeded, func(int) error {
		exceeded, err := store.CheckAndRecord(context.Background(), "ip:burst", 5, time.Minute, now)
		if err != nil {
			return err
		}
		if exceeded {
			return errExceeded
		}
		return nil
	})

	assert.Equal(t, int32(5), result.Successes)
	assert.Equal(t, int32(45), result.Matched)
	assert.Zero(t, result.Errors)

	exceeded, err := store.CheckAndRecord(context.Background(), "ip:burst", 5, time.Minute, now)
	require.NoError(t, err)
	assert.True(t, exceeded)
}
