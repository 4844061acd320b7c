package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenConsumption(t *testing.T) {
	tok := &Token{RequiredRoutes: CallRequestFlow}

	assert.False(t, tok.IsComplete())
	tok.Consume(RouteCRM)
	tok.Consume(RouteCRM)
	assert.Equal(t, []Route{RouteCRM}, tok.ConsumedBy)
	assert.False(t, tok.IsComplete())

	tok.Consume(RouteCallDispatch)
	assert.True(t, tok.IsComplete())
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tok := &Token{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, tok.IsExpired(now))
	assert.True(t, tok.IsExpired(now.Add(time.Minute)))
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	tok := &Token{RequiredRoutes: []Route{RouteCRM}}
	c := tok.Clone()
	c.Consume(RouteCRM)

	assert.Empty(t, tok.ConsumedBy)
	assert.True(t, RouteCallDispatch.IsValid())
	assert.False(t, Route("email").IsValid())
}

func TestReservedRouteIsNeitherConsumedNorComplete(t *testing.T) {
	tok := &Token{RequiredRoutes: LeadFlow}

	tok.Reserve(RouteCRM)
	tok.Reserve(RouteCRM)
	assert.Equal(t, []Route{RouteCRM}, tok.Pending)
	assert.False(t, tok.IsConsumed(RouteCRM))
	assert.False(t, tok.IsComplete())

	tok.Release(RouteCRM)
	assert.Empty(t, tok.Pending)
	assert.Empty(t, tok.ConsumedBy)

	tok.Reserve(RouteCRM)
	tok.Consume(RouteCRM)
	assert.Empty(t, tok.Pending)
	assert.True(t, tok.IsComplete())
}
