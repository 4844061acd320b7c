// Package app assembles the leadgate HTTP surface and background workers from
// configuration. cmd/server runs it; the e2e suite builds it in-process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	abusemetrics "leadgate/internal/abuse/metrics"
	abuseservice "leadgate/internal/abuse/service"
	"leadgate/internal/captcha"
	"leadgate/internal/integrations/crm"
	"leadgate/internal/integrations/dispatch"
	"leadgate/internal/integrations/httpjson"
	"leadgate/internal/integrations/notify"
	"leadgate/internal/killswitch/handler"
	ksmetrics "leadgate/internal/killswitch/metrics"
	ksservice "leadgate/internal/killswitch/service"
	ledgermetrics "leadgate/internal/ledger/metrics"
	ledgerservice "leadgate/internal/ledger/service"
	"leadgate/internal/ledger/workers/reaper"
	"leadgate/internal/opmode"
	"leadgate/internal/platform/config"
	"leadgate/internal/platform/database"
	"leadgate/internal/platform/health"
	"leadgate/internal/platform/kafka/producer"
	platformredis "leadgate/internal/platform/redis"
	rlconfig "leadgate/internal/ratelimit/config"
	rlmetrics "leadgate/internal/ratelimit/metrics"
	rlservice "leadgate/internal/ratelimit/service"
	"leadgate/internal/ratelimit/workers/cleanup"
	submissionhandler "leadgate/internal/submission/handler"
	submissionservice "leadgate/internal/submission/service"
	"leadgate/pkg/platform/circuit"
	"leadgate/pkg/platform/middleware/admin"
	"leadgate/pkg/platform/middleware/metadata"
	"leadgate/pkg/platform/middleware/request"
	"leadgate/pkg/platform/middleware/requesttime"
	"leadgate/pkg/platform/tracer"
	"leadgate/pkg/secrets"
)

// Worker is a background loop that returns nil when ctx is cancelled.
type Worker struct {
	Name string
	Run  func(ctx context.Context) error
}

// App is a fully wired server.
type App struct {
	Router   http.Handler
	Workers  []Worker
	Notifier *notify.Notifier

	closers []func() error
}

type Option func(*options)

type options struct {
	registry   *prometheus.Registry
	httpClient *http.Client
	tracer     tracer.Tracer
}

// WithRegistry registers metrics on reg instead of the default registry and
// serves /metrics from it.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithHTTPClient sets the client used for every outbound call.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTracer sets the tracer for outbound calls. The default is an
// OpenTelemetry tracer from the global provider.
func WithTracer(t tracer.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// New wires every component for cfg. Close releases what it opened.
func New(ctx context.Context, cfg config.Server, logger *slog.Logger, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.tracer == nil {
		o.tracer = tracer.NewOTel()
	}
	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if o.registry != nil {
		reg, gatherer = o.registry, o.registry
	}

	a := &App{}
	fail := func(err error) (*App, error) {
		_ = a.Close()
		return nil, err
	}

	checks := health.New(cfg.Environment)

	infra, err := openInfra(ctx, cfg, logger, checks)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, infra.close)
	if infra.redis != nil {
		a.Workers = append(a.Workers, Worker{Name: "redis_stats", Run: func(ctx context.Context) error {
			return infra.redis.RunStatsRecorder(ctx, cfg.Redis.StatsInterval)
		}})
	}

	st, err := selectStores(cfg.StoreBackend, infra)
	if err != nil {
		return fail(err)
	}

	// Rate limiting and the abuse engine.
	rlm := rlmetrics.New(reg)
	limiter, err := rlservice.New(st.buckets,
		rlservice.WithLogger(logger),
		rlservice.WithConfig(rlconfig.FromPlatform(cfg.RateLimit)),
		rlservice.WithMetrics(rlm),
	)
	if err != nil {
		return fail(err)
	}
	if st.pruner != nil {
		worker, err := cleanup.New(st.pruner,
			cleanup.WithLogger(logger),
			cleanup.WithInterval(cfg.RateLimit.CleanupInterval),
			cleanup.WithMetrics(rlm),
		)
		if err != nil {
			return fail(err)
		}
		a.Workers = append(a.Workers, Worker{Name: "ratelimit_cleanup", Run: worker.Start})
	}
	abuse, err := abuseservice.New(limiter,
		abuseservice.WithLogger(logger),
		abuseservice.WithMetrics(abusemetrics.New(reg)),
	)
	if err != nil {
		return fail(err)
	}

	captchaOpts := []captcha.Option{
		captcha.WithLogger(logger),
		captcha.WithMetrics(captcha.NewMetrics(reg)),
	}
	if o.httpClient != nil {
		captchaOpts = append(captchaOpts, captcha.WithClient(o.httpClient))
	}
	captchaOpts = append(captchaOpts, captcha.WithTracer(o.tracer))
	gateway, err := captcha.New(cfg.Captcha, cfg.IsProduction(), captchaOpts...)
	if err != nil {
		return fail(err)
	}

	// Ledger and its reaper.
	lm := ledgermetrics.New(reg)
	ledger, err := ledgerservice.New(st.ledger,
		ledgerservice.WithLogger(logger),
		ledgerservice.WithMetrics(lm),
		ledgerservice.WithTTL(cfg.Ledger.TTL),
	)
	if err != nil {
		return fail(err)
	}
	ledgerReaper, err := reaper.New(st.ledger,
		reaper.WithLogger(logger),
		reaper.WithInterval(cfg.Ledger.ReaperInterval),
		reaper.WithMetrics(lm),
	)
	if err != nil {
		return fail(err)
	}
	a.Workers = append(a.Workers, Worker{Name: "ledger_reaper", Run: ledgerReaper.Start})

	modes, err := newModeResolver(cfg, logger, reg, o.httpClient, o.tracer)
	if err != nil {
		return fail(err)
	}

	forms, err := ksservice.New(st.settings,
		ksservice.WithLogger(logger),
		ksservice.WithMetrics(ksmetrics.New(reg)),
		ksservice.WithCacheTTL(cfg.KillSwitch.CacheTTL),
	)
	if err != nil {
		return fail(err)
	}

	notifier, err := newNotifier(cfg, logger, reg, o.httpClient, infra.kafka)
	if err != nil {
		return fail(err)
	}
	a.Notifier = notifier

	submissions, err := submissionservice.New(submissionservice.Deps{
		Switch:     forms,
		Abuse:      abuse,
		Captcha:    gateway,
		Ledger:     ledger,
		Modes:      modes,
		CRM:        newCRM(cfg.CRM, logger, o.httpClient, o.tracer),
		Dispatcher: newDispatcher(cfg.Dispatch, logger, o.httpClient, o.tracer),
		Notifier:   notifier,
	},
		submissionservice.WithLogger(logger),
		submissionservice.WithAgentID(cfg.Dispatch.AgentID),
		submissionservice.WithDecoyTTL(cfg.Ledger.TTL),
	)
	if err != nil {
		return fail(err)
	}

	formsHandler := handler.New(forms, logger)

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(&metadata.Config{
		TrustedProxies: metadata.ParseTrustedProxies(cfg.HTTP.TrustedProxies),
	}).Handler)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	r.Use(request.Instrument(request.NewMetrics(reg)))

	checks.Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(request.BodyLimit(cfg.HTTP.MaxBodyBytes))
		r.Use(request.ContentTypeJSON)
		submissionhandler.New(submissions, logger).Register(r)
		formsHandler.Register(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Use(admin.RequireOperator(cfg.Admin.TokenHash, logger))
		formsHandler.RegisterAdmin(r)
	})
	if cfg.Admin.TokenHash == "" {
		logger.Warn("admin_token_unset", "effect", "PUT /admin/forms/enabled rejects every request")
	}

	a.Router = r
	return a, nil
}

// Close waits for pending notifications and releases connections.
func (a *App) Close() error {
	if a.Notifier != nil {
		a.Notifier.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

type infra struct {
	db    *database.Pool
	redis *platformredis.Client
	kafka *producer.Producer
}

func (i *infra) close() error {
	var errs []error
	if i.kafka != nil {
		errs = append(errs, i.kafka.Close())
	}
	if i.redis != nil {
		errs = append(errs, i.redis.Close())
	}
	if i.db != nil {
		errs = append(errs, i.db.Close())
	}
	return errors.Join(errs...)
}

// openInfra connects whatever is configured and registers a readiness check
// for each connection.
func openInfra(ctx context.Context, cfg config.Server, logger *slog.Logger, checks *health.Handler) (*infra, error) {
	i := &infra{}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		i.db = db
		checks.RegisterCheck("postgres", db.Health)
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		_ = i.close()
		return nil, err
	}
	if rc != nil {
		i.redis = rc
		checks.RegisterCheck("redis", rc.Health)
	}

	if cfg.Kafka.Brokers != "" {
		p, err := producer.New(cfg.Kafka, logger)
		if err != nil {
			_ = i.close()
			return nil, err
		}
		i.kafka = p
		checks.RegisterCheck("kafka", p.Health)
	}
	return i, nil
}

func newModeResolver(cfg config.Server, logger *slog.Logger, reg prometheus.Registerer, client *http.Client, t tracer.Tracer) (*opmode.Service, error) {
	key := cfg.OpMode.SigningKey
	if key == "" {
		generated, err := secrets.Generate(32)
		if err != nil {
			return nil, err
		}
		key = generated
		logger.Warn("opmode_signing_key_generated", "effect", "mode tokens do not survive restarts or span replicas")
	}
	signer, err := opmode.NewSigner(key, cfg.OpMode.CacheTTL)
	if err != nil {
		return nil, err
	}
	var doer opmode.HTTPDoer
	if client != nil {
		doer = client
	}
	prober := opmode.NewHTTPProber(cfg.OpMode.HealthURL, cfg.OpMode.ProbeTimeout, doer, opmode.WithProbeTracer(t))
	if cfg.OpMode.HealthURL == "" {
		logger.Warn("opmode_health_url_unset", "effect", "every call uses the reserve number")
	}
	return opmode.New(signer, prober, opmode.Numbers{
		Primary: cfg.OpMode.PrimaryNumber,
		Reserve: cfg.OpMode.ReserveNumber,
	},
		opmode.WithLogger(logger),
		opmode.WithMetrics(opmode.NewMetrics(reg)),
		opmode.WithVerdictTTL(cfg.OpMode.VerdictTTL),
	)
}

func newNotifier(cfg config.Server, logger *slog.Logger, reg prometheus.Registerer, client *http.Client, kafka *producer.Producer) (*notify.Notifier, error) {
	m := notify.NewMetrics(reg)
	sinks := []notify.Sink{notify.NewLog(logger)}

	if cfg.Notify.WebhookURL != "" {
		breaker := circuit.New("notify_webhook",
			circuit.WithFailureThreshold(cfg.Notify.BreakerFailures),
			circuit.WithCooldown(cfg.Notify.BreakerCooldown),
			circuit.WithStateChangeHook(func(name string, from, to circuit.State) {
				logger.Warn("circuit_state_changed", "breaker", name, "from", from.String(), "to", to.String())
				if to == circuit.StateOpen {
					m.BreakerState.Set(1)
				} else {
					m.BreakerState.Set(0)
				}
			}),
		)
		var doer notify.HTTPDoer
		if client != nil {
			doer = client
		}
		sinks = append(sinks, notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.Timeout, doer, breaker))
	}
	if kafka != nil {
		if cfg.Kafka.Topic == "" {
			return nil, fmt.Errorf("KAFKA_NOTIFY_TOPIC is required when KAFKA_BROKERS is set")
		}
		sinks = append(sinks, notify.NewKafka(kafka, cfg.Kafka.Topic))
	}
	return notify.New(sinks,
		notify.WithLogger(logger),
		notify.WithMetrics(m),
		notify.WithTimeout(cfg.Notify.Timeout*2),
	), nil
}

func newCRM(cfg config.CRMConfig, logger *slog.Logger, client *http.Client, t tracer.Tracer) submissionservice.CRM {
	if cfg.BaseURL == "" {
		logger.Warn("crm_base_url_unset", "effect", "contacts are logged, not stored")
		return crm.NewLogging(logger)
	}
	if client != nil {
		return crm.New(cfg, client, httpjson.WithTracer(t))
	}
	return crm.New(cfg, nil, httpjson.WithTracer(t))
}

func newDispatcher(cfg config.DispatchConfig, logger *slog.Logger, client *http.Client, t tracer.Tracer) submissionservice.Dispatcher {
	if cfg.BaseURL == "" {
		logger.Warn("dispatch_base_url_unset", "effect", "calls are logged, not placed")
		return dispatch.NewLogging(logger)
	}
	if client != nil {
		return dispatch.New(cfg, client, httpjson.WithTracer(t))
	}
	return dispatch.New(cfg, nil, httpjson.WithTracer(t))
}
