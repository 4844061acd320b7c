package reaper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgate/internal/ledger/metrics"
	"leadgate/internal/ledger/models"
	"leadgate/internal/ledger/store"
	"leadgate/pkg/platform/sentinel"
	"leadgate/pkg/testutil"
)

func TestRunOnceDeletesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock()
	now := clock.Now()
	st := store.NewInMemory()
	require.NoError(t, st.Save(ctx, &models.Token{Code: "sub_old", CreatedAt: now.Add(-10 * time.Minute), ExpiresAt: now.Add(-5 * time.Minute)}))
	require.NoError(t, st.Save(ctx, &models.Token{Code: "sub_new", CreatedAt: now, ExpiresAt: now.Add(5 * time.Minute)}))

	m := metrics.New(prometheus.NewRegistry())
	w, err := New(st, WithClock(clock.Now), WithMetrics(m))
	require.NoError(t, err)

	deleted, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	_, err = st.Find(ctx, "sub_old")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	_, err = st.Find(ctx, "sub_new")
	assert.NoError(t, err)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.Reaped))
}

type failingExpirer struct{}

func (failingExpirer) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, errors.New("db down")
}

func TestRunOnceReturnsStoreError(t *testing.T) {
	w, err := New(failingExpirer{})
	require.NoError(t, err)

	_, err = w.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestStartStopsOnCancel(t *testing.T) {
	w, err := New(store.NewInMemory(), WithInterval(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
