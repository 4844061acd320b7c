// Package service orchestrates the form endpoints: the kill-switch, the
// abuse engine, CAPTCHA and the ledger in front of the CRM and call
// dispatch integrations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	abusemodels "leadgate/internal/abuse/models"
	"leadgate/internal/captcha"
	"leadgate/internal/integrations/crm"
	"leadgate/internal/integrations/dispatch"
	"leadgate/internal/integrations/httpjson"
	"leadgate/internal/integrations/notify"
	ledgermodels "leadgate/internal/ledger/models"
	"leadgate/internal/opmode"
	"leadgate/internal/submission/models"
	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/platform/privacy"
	"leadgate/pkg/requestcontext"
	"leadgate/pkg/secrets"
)

var (
	ErrFormsDisabled = dErrors.New(dErrors.CodeUnavailable, "submissions are temporarily disabled")
	ErrCaptchaFailed = dErrors.New(dErrors.CodeVerificationFailed, "captcha verification failed, please retry")
	ErrBlocked       = dErrors.New(dErrors.CodeBlocked, "submission rejected")
	ErrRateLimited   = dErrors.New(dErrors.CodeRateLimited, "too many submissions, please try again later")
)

type FormsSwitch interface {
	IsEnabled(ctx context.Context) bool
}

type AbuseEngine interface {
	Evaluate(ctx context.Context, sub abusemodels.Submission) abusemodels.Verdict
}

type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) captcha.Verdict
}

type Ledger interface {
	Issue(ctx context.Context, email, phone string, routes []ledgermodels.Route) (*ledgermodels.Token, error)
	RedeemWith(ctx context.Context, code, email, phone string, route ledgermodels.Route, fn func(ctx context.Context) error) error
}

type ModeResolver interface {
	Resolve(ctx context.Context, cacheToken string) (opmode.Mode, string, error)
	FromNumber(mode opmode.Mode) string
}

type CRM interface {
	UpsertContact(ctx context.Context, contact crm.Contact) (*crm.Result, error)
}

type Dispatcher interface {
	PlaceCall(ctx context.Context, call dispatch.Call) (*dispatch.Result, error)
}

type Notifier interface {
	Notify(ctx context.Context, e notify.Event)
}

// Deps bundles the collaborators. Every field is required.
type Deps struct {
	Switch     FormsSwitch
	Abuse      AbuseEngine
	Captcha    CaptchaVerifier
	Ledger     Ledger
	Modes      ModeResolver
	CRM        CRM
	Dispatcher Dispatcher
	Notifier   Notifier
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAgentID sets the voice agent placed calls are routed to.
func WithAgentID(id string) Option {
	return func(s *Service) {
		s.agentID = id
	}
}

// WithDecoyTTL sets the expiry reported on decoy responses.
func WithDecoyTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.decoyTTL = ttl
		}
	}
}

type Service struct {
	deps     Deps
	agentID  string
	decoyTTL time.Duration
	logger   *slog.Logger
}

func New(deps Deps, opts ...Option) (*Service, error) {
	switch {
	case deps.Switch == nil:
		return nil, errors.New("forms switch is required")
	case deps.Abuse == nil:
		return nil, errors.New("abuse engine is required")
	case deps.Captcha == nil:
		return nil, errors.New("captcha verifier is required")
	case deps.Ledger == nil:
		return nil, errors.New("ledger is required")
	case deps.Modes == nil:
		return nil, errors.New("mode resolver is required")
	case deps.CRM == nil:
		return nil, errors.New("crm client is required")
	case deps.Dispatcher == nil:
		return nil, errors.New("call dispatcher is required")
	case deps.Notifier == nil:
		return nil, errors.New("notifier is required")
	}
	s := &Service{
		deps:     deps,
		decoyTTL: 5 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type primary struct {
	contact  models.Contact
	honeypot models.Honeypot
	captcha  string
	company  string
	message  string
	source   string
	routes   []ledgermodels.Route
}

// SubmitLead accepts the lead form and issues a code good for the CRM route.
func (s *Service) SubmitLead(ctx context.Context, req *models.LeadRequest, meta models.ClientMeta) (*models.SubmissionResult, error) {
	return s.submit(ctx, primary{
		contact:  req.Contact,
		honeypot: req.Honeypot,
		captcha:  req.CaptchaToken,
		company:  req.Company,
		message:  req.Message,
		source:   models.SourceLeadForm,
		routes:   ledgermodels.LeadFlow,
	}, meta)
}

// SubmitCallRequest accepts the call-request form and issues a code good for
// the CRM and call dispatch routes. Accepted requests raise a hot lead.
func (s *Service) SubmitCallRequest(ctx context.Context, req *models.CallRequest, meta models.ClientMeta) (*models.SubmissionResult, error) {
	return s.submit(ctx, primary{
		contact:  req.Contact,
		honeypot: req.Honeypot,
		captcha:  req.CaptchaToken,
		company:  req.Company,
		source:   models.SourceCallRequest,
		routes:   ledgermodels.CallRequestFlow,
	}, meta)
}

func (s *Service) submit(ctx context.Context, p primary, meta models.ClientMeta) (*models.SubmissionResult, error) {
	if !s.deps.Switch.IsEnabled(ctx) {
		return nil, ErrFormsDisabled
	}

	verdict := s.deps.Abuse.Evaluate(ctx, abusemodels.Submission{
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Name:      p.contact.Name,
		Email:     p.contact.Email,
		Phone:     p.contact.Phone,
		Honeypot:  p.honeypot.Values(),
	})
	if verdict.Blocked {
		if verdict.Kind == abusemodels.KindRateLimit {
			return nil, ErrRateLimited
		}
		return nil, ErrBlocked
	}

	cv := s.deps.Captcha.Verify(ctx, p.captcha, meta.IP)
	if !cv.IsValid {
		return nil, ErrCaptchaFailed
	}

	if verdict.IsBot {
		return s.decoy(ctx, p, meta, verdict)
	}

	token, err := s.deps.Ledger.Issue(ctx, p.contact.Email, p.contact.Phone, p.routes)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "submission_accepted",
		"request_id", requestcontext.RequestID(ctx),
		"source", p.source,
		"ip", privacy.AnonymizeIP(meta.IP),
		"email", privacy.MaskEmail(p.contact.Email),
	)
	if p.source == models.SourceCallRequest {
		s.deps.Notifier.Notify(ctx, notify.Event{
			Channel: notify.ChannelHotLead,
			Type:    "call_requested",
			Summary: "New call request from " + p.contact.Name,
			Fields: map[string]string{
				"name":    p.contact.Name,
				"email":   p.contact.Email,
				"phone":   p.contact.Phone,
				"company": p.company,
			},
		})
	}
	return &models.SubmissionResult{Code: token.Code, ExpiresAt: token.ExpiresAt}, nil
}

// decoy answers an advisory-flagged submission with a response shaped like a
// real one. The code is never persisted, so nothing downstream fires.
func (s *Service) decoy(ctx context.Context, p primary, meta models.ClientMeta, v abusemodels.Verdict) (*models.SubmissionResult, error) {
	code, err := secrets.Generate(32)
	if err != nil {
		code = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	s.logger.InfoContext(ctx, "submission_diverted",
		"request_id", requestcontext.RequestID(ctx),
		"source", p.source,
		"ip", privacy.AnonymizeIP(meta.IP),
		"reason", v.Reason,
	)
	fields := map[string]string{
		"source":  p.source,
		"name":    p.contact.Name,
		"email":   p.contact.Email,
		"phone":   p.contact.Phone,
		"reason":  v.Reason,
		"ip":      privacy.AnonymizeIP(meta.IP),
		"company": p.company,
	}
	if p.message != "" {
		fields["message"] = p.message
	}
	s.deps.Notifier.Notify(ctx, notify.Event{
		Channel: notify.ChannelTrash,
		Type:    "submission_flagged",
		Summary: "Flagged submission from " + p.contact.Name,
		Fields:  fields,
	})
	return &models.SubmissionResult{
		Code:      ledgermodels.CodePrefix + code,
		ExpiresAt: requestcontext.Now(ctx).Add(s.decoyTTL),
		Decoy:     true,
	}, nil
}

// SyncContact redeems the crm route and upserts the contact. A failed upsert
// is reported as a bad gateway and the route stays redeemable.
func (s *Service) SyncContact(ctx context.Context, req *models.ContactSyncRequest) (*models.ContactResult, error) {
	if !s.deps.Switch.IsEnabled(ctx) {
		return nil, ErrFormsDisabled
	}

	var result *crm.Result
	err := s.deps.Ledger.RedeemWith(ctx, req.Code, req.Email, req.Phone, ledgermodels.RouteCRM, func(ctx context.Context) error {
		res, err := s.deps.CRM.UpsertContact(ctx, crm.Contact{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Company: req.Company,
			Message: req.Message,
			Source:  req.Source,
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, s.upstreamError(ctx, "crm", err)
	}
	return &models.ContactResult{ContactID: result.ContactID, Created: result.Created}, nil
}

// DispatchCall redeems the call_dispatch route and places the call from the
// number the current operational mode selects.
func (s *Service) DispatchCall(ctx context.Context, req *models.DispatchRequest, modeToken string) (*models.DispatchResult, error) {
	if !s.deps.Switch.IsEnabled(ctx) {
		return nil, ErrFormsDisabled
	}

	var (
		result *dispatch.Result
		mode   opmode.Mode
		token  string
	)
	err := s.deps.Ledger.RedeemWith(ctx, req.Code, req.Email, req.Phone, ledgermodels.RouteCallDispatch, func(ctx context.Context) error {
		var err error
		mode, token, err = s.deps.Modes.Resolve(ctx, modeToken)
		if err != nil {
			// The mode is still usable; only the cache token is lost.
			s.logger.WarnContext(ctx, "opmode_token_mint_failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		res, err := s.deps.Dispatcher.PlaceCall(ctx, dispatch.Call{
			From:    s.deps.Modes.FromNumber(mode),
			To:      req.Phone,
			AgentID: s.agentID,
			Variables: map[string]string{
				"customer_name": req.Name,
				"mode":          string(mode),
			},
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, s.upstreamError(ctx, "dispatch", err)
	}

	if mode == opmode.ModeReserve {
		s.deps.Notifier.Notify(ctx, notify.Event{
			Channel: notify.ChannelOps,
			Type:    "call_dispatched_reserve",
			Summary: "Outbound call placed from the reserve number",
			Fields:  map[string]string{"call_id": result.CallID},
		})
	}
	return &models.DispatchResult{CallID: result.CallID, Mode: string(mode), ModeToken: token}, nil
}

// CheckEnabled returns ErrFormsDisabled while the kill-switch is off.
func (s *Service) CheckEnabled(ctx context.Context) error {
	if !s.deps.Switch.IsEnabled(ctx) {
		return ErrFormsDisabled
	}
	return nil
}

// ResolveMode reports the current operational mode. It is part of the call
// form surface, so the kill-switch closes it too.
func (s *Service) ResolveMode(ctx context.Context, modeToken string) (opmode.Mode, string, error) {
	if !s.deps.Switch.IsEnabled(ctx) {
		return "", "", ErrFormsDisabled
	}
	mode, token, err := s.deps.Modes.Resolve(ctx, modeToken)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve operational mode")
	}
	return mode, token, nil
}

// upstreamError passes domain errors from the ledger through and turns any
// other failure into a bad gateway. Upstream refusals that a retry cannot fix
// (bad credentials, rejected payloads) are reported as non-retryable.
func (s *Service) upstreamError(ctx context.Context, upstream string, err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	code := dErrors.CodeBadGateway
	var ue *httpjson.Error
	if errors.As(err, &ue) && !ue.IsRetryable() {
		code = dErrors.CodeUpstreamRejected
	}
	s.logger.ErrorContext(ctx, "upstream_write_failed",
		"request_id", requestcontext.RequestID(ctx),
		"upstream", upstream,
		"kind", string(httpjson.KindOf(err)),
		"retryable", code == dErrors.CodeBadGateway,
		"error", err,
	)
	return dErrors.Wrap(err, code, upstream+" request failed")
}
