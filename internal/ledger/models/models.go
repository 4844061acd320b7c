package models

import (
	"slices"
	"time"
)

// Route names a secondary endpoint that may redeem a submission code.
type Route string

const (
	RouteCRM          Route = "crm"
	RouteCallDispatch Route = "call_dispatch"
)

// CodePrefix marks every submission code.
const CodePrefix = "sub_"

// Flows map a primary endpoint to the routes its code authorizes.
var (
	LeadFlow        = []Route{RouteCRM}
	CallRequestFlow = []Route{RouteCRM, RouteCallDispatch}
)

func (r Route) IsValid() bool {
	return r == RouteCRM || r == RouteCallDispatch
}

// Token is one issued submission authorization. ConsumedBy only grows and
// holds each route at most once. Pending holds routes reserved by a guarded
// upstream call that has not finished; a pending route is neither redeemable
// nor consumed, and a record with pending routes is never complete.
type Token struct {
	Code           string
	Email          string
	Phone          string
	RequiredRoutes []Route
	ConsumedBy     []Route
	Pending        []Route
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

func (t *Token) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *Token) Requires(r Route) bool {
	return slices.Contains(t.RequiredRoutes, r)
}

func (t *Token) IsConsumed(r Route) bool {
	return slices.Contains(t.ConsumedBy, r)
}

func (t *Token) IsPending(r Route) bool {
	return slices.Contains(t.Pending, r)
}

// Consume records r and clears any reservation of it. It is a no-op on
// ConsumedBy when r was already consumed.
func (t *Token) Consume(r Route) {
	t.Release(r)
	if !t.IsConsumed(r) {
		t.ConsumedBy = append(t.ConsumedBy, r)
	}
}

// Reserve marks r as in flight.
func (t *Token) Reserve(r Route) {
	if !t.IsPending(r) {
		t.Pending = append(t.Pending, r)
	}
}

// Release drops the reservation of r without consuming it.
func (t *Token) Release(r Route) {
	t.Pending = slices.DeleteFunc(t.Pending, func(p Route) bool { return p == r })
}

// IsComplete reports whether every required route has been consumed.
func (t *Token) IsComplete() bool {
	for _, r := range t.RequiredRoutes {
		if !t.IsConsumed(r) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so stores never share slices with callers.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	c := *t
	c.RequiredRoutes = slices.Clone(t.RequiredRoutes)
	c.ConsumedBy = slices.Clone(t.ConsumedBy)
	c.Pending = slices.Clone(t.Pending)
	return &c
}

// Action tells a store what to do with a record after an Execute callback.
type Action int

const (
	ActionKeep Action = iota
	ActionUpdate
	ActionDelete
)
