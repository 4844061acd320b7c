// Package service issues and redeems submission authorization codes.
//
// A primary endpoint issues a code naming the routes it authorizes. Each
// secondary endpoint redeems the code once for its own route; the record is
// deleted when every route has been consumed or when it expires.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"leadgate/internal/ledger/metrics"
	"leadgate/internal/ledger/models"
	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/platform/privacy"
	"leadgate/pkg/platform/sentinel"
	"leadgate/pkg/requestcontext"
	"leadgate/pkg/secrets"
	pkgstring "leadgate/pkg/string"
)

// DefaultTTL is how long an issued code stays redeemable.
const DefaultTTL = 5 * time.Minute

// ErrRedeemRejected is the only error callers see from a failed redemption.
var ErrRedeemRejected = dErrors.New(dErrors.CodeNotAuthorized, "please resubmit the form through the website")

// Internal rejection reasons, used for logs and metrics only.
const (
	reasonNotFound        = "not_found"
	reasonExpired         = "expired"
	reasonMismatch        = "identity_mismatch"
	reasonRouteNotAllowed = "route_not_allowed"
	reasonAlreadyConsumed = "already_consumed"
	reasonConflict        = "conflict"
	reasonInvalidRoute    = "invalid_route"
	reasonInFlight        = "in_flight"
)

type Store interface {
	Save(ctx context.Context, t *models.Token) error
	Find(ctx context.Context, code string) (*models.Token, error)
	Execute(ctx context.Context, code string, fn func(*models.Token) (models.Action, error)) error
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

type Service struct {
	store   Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("ledger store is required")
	}
	s := &Service{
		store:  store,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue mints a code bound to the normalized email and phone that each of
// routes may redeem once.
func (s *Service) Issue(ctx context.Context, email, phone string, routes []models.Route) (*models.Token, error) {
	if len(routes) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one route is required")
	}
	required := make([]models.Route, 0, len(routes))
	for _, r := range routes {
		if !r.IsValid() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown route %q", r))
		}
		if !slices.Contains(required, r) {
			required = append(required, r)
		}
	}

	secret, err := secrets.Generate(32)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate submission code")
	}
	now := requestcontext.Now(ctx)
	token := &models.Token{
		Code:           models.CodePrefix + secret,
		Email:          pkgstring.NormalizeEmail(email),
		Phone:          pkgstring.NormalizePhone(phone),
		RequiredRoutes: required,
		ConsumedBy:     []models.Route{},
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, token); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store submission code")
	}

	if s.metrics != nil {
		s.metrics.Issued.WithLabelValues(flowName(required)).Inc()
	}
	s.logger.InfoContext(ctx, "submission_code_issued",
		"request_id", requestcontext.RequestID(ctx),
		"email", privacy.MaskEmail(token.Email),
		"routes", routeNames(required),
		"expires_at", token.ExpiresAt,
	)
	return token.Clone(), nil
}

// rejection carries the internal reason out of the store callback.
type rejection struct{ reason string }

func (r *rejection) Error() string { return "redeem rejected: " + r.reason }

// Redeem consumes route on code for the given identity. Every failure,
// including store errors, returns ErrRedeemRejected.
func (s *Service) Redeem(ctx context.Context, code, email, phone string, route models.Route) error {
	if _, err := s.claim(ctx, code, email, phone, route, false); err != nil {
		return err
	}
	s.redeemed(ctx, route)
	return nil
}

// RedeemWith reserves route, runs fn, and then commits the route when fn
// succeeds or releases it when fn fails. A reserved route cannot be redeemed
// by anyone else, and the record is never recreated once deleted, so a
// failed fn cannot revive routes that another caller already completed.
// fn's error is returned unchanged.
func (s *Service) RedeemWith(ctx context.Context, code, email, phone string, route models.Route, fn func(ctx context.Context) error) error {
	code, err := s.claim(ctx, code, email, phone, route, true)
	if err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		s.release(ctx, code, route)
		return err
	}
	s.commit(ctx, code, route)
	return nil
}

// claim validates the redemption and either consumes route or, when reserve
// is set, marks it pending. It returns the trimmed code.
func (s *Service) claim(ctx context.Context, code, email, phone string, route models.Route, reserve bool) (string, error) {
	if !route.IsValid() {
		return "", s.reject(ctx, route, reasonInvalidRoute, nil)
	}
	code = strings.TrimSpace(code)
	if code == "" || !strings.HasPrefix(code, models.CodePrefix) {
		return "", s.reject(ctx, route, reasonNotFound, nil)
	}

	email = pkgstring.NormalizeEmail(email)
	phone = pkgstring.NormalizePhone(phone)
	now := requestcontext.Now(ctx)

	err := s.store.Execute(ctx, code, func(t *models.Token) (models.Action, error) {
		switch {
		case t.IsExpired(now):
			return models.ActionDelete, &rejection{reasonExpired}
		case t.Email != email || t.Phone != phone:
			return models.ActionKeep, &rejection{reasonMismatch}
		case !t.Requires(route):
			return models.ActionKeep, &rejection{reasonRouteNotAllowed}
		case t.IsConsumed(route):
			return models.ActionKeep, &rejection{reasonAlreadyConsumed}
		case t.IsPending(route):
			return models.ActionKeep, &rejection{reasonInFlight}
		}
		if reserve {
			t.Reserve(route)
			return models.ActionUpdate, nil
		}
		t.Consume(route)
		if t.IsComplete() {
			return models.ActionDelete, nil
		}
		return models.ActionUpdate, nil
	})

	if err != nil {
		var rej *rejection
		switch {
		case errors.As(err, &rej):
			return "", s.reject(ctx, route, rej.reason, nil)
		case errors.Is(err, sentinel.ErrNotFound):
			return "", s.reject(ctx, route, reasonNotFound, nil)
		case errors.Is(err, sentinel.ErrConflict):
			return "", s.reject(ctx, route, reasonConflict, nil)
		default:
			return "", s.reject(ctx, route, "store_error", err)
		}
	}
	return code, nil
}

// commit turns a reservation into a consumption. A record that expired or was
// reaped while fn ran is left gone.
func (s *Service) commit(ctx context.Context, code string, route models.Route) {
	err := s.store.Execute(ctx, code, func(t *models.Token) (models.Action, error) {
		t.Consume(route)
		if t.IsComplete() {
			return models.ActionDelete, nil
		}
		return models.ActionUpdate, nil
	})
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.ErrorContext(ctx, "submission_code_commit_failed",
			"request_id", requestcontext.RequestID(ctx),
			"route", string(route),
			"error", err,
		)
	}
	s.redeemed(ctx, route)
}

// release drops the reservation so the caller may retry route. Consumed
// routes are left untouched.
func (s *Service) release(ctx context.Context, code string, route models.Route) {
	err := s.store.Execute(ctx, code, func(t *models.Token) (models.Action, error) {
		if !t.IsPending(route) {
			return models.ActionKeep, nil
		}
		t.Release(route)
		return models.ActionUpdate, nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "submission_code_release_failed",
			"request_id", requestcontext.RequestID(ctx),
			"route", string(route),
			"error", err,
		)
		return
	}
	if s.metrics != nil {
		s.metrics.Released.WithLabelValues(string(route)).Inc()
	}
	s.logger.InfoContext(ctx, "submission_code_released",
		"request_id", requestcontext.RequestID(ctx),
		"route", string(route),
	)
}

func (s *Service) redeemed(ctx context.Context, route models.Route) {
	if s.metrics != nil {
		s.metrics.Redeemed.WithLabelValues(string(route)).Inc()
	}
	s.logger.InfoContext(ctx, "submission_code_redeemed",
		"request_id", requestcontext.RequestID(ctx),
		"route", string(route),
	)
}

func (s *Service) reject(ctx context.Context, route models.Route, reason string, cause error) error {
	if s.metrics != nil {
		s.metrics.Rejected.WithLabelValues(reason).Inc()
	}
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"route", string(route),
		"reason", reason,
	}
	if cause != nil {
		s.logger.ErrorContext(ctx, "submission_redeem_failed", append(attrs, "error", cause)...)
	} else {
		s.logger.WarnContext(ctx, "submission_redeem_rejected", attrs...)
	}
	return ErrRedeemRejected
}

// Lookup returns the live record for code, or not_found.
func (s *Service) Lookup(ctx context.Context, code string) (*models.Token, error) {
	t, err := s.store.Find(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "submission code not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submission code")
	}
	if t.IsExpired(requestcontext.Now(ctx)) {
		return nil, dErrors.New(dErrors.CodeNotFound, "submission code not found")
	}
	return t, nil
}

func flowName(routes []models.Route) string {
	if slices.Contains(routes, models.RouteCallDispatch) {
		return "call_request"
	}
	return "lead"
}

func routeNames(routes []models.Route) []string {
	out := make([]string, len(routes))
	for i, r := range routes {
		out[i] = string(r)
	}
	return out
}
