package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Server captures every setting the process reads at startup.
type Server struct {
	Environment  string `env:"ENVIRONMENT"   envDefault:"development"`
	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`

	HTTP       HTTPConfig
	Redis      RedisConfig
	Database   DatabaseConfig
	Kafka      KafkaConfig
	RateLimit  RateLimitConfig
	Captcha    CaptchaConfig
	Ledger     LedgerConfig
	OpMode     OpModeConfig
	KillSwitch KillSwitchConfig
	CRM        CRMConfig
	Dispatch   DispatchConfig
	Notify     NotifyConfig
	Admin      AdminConfig
}

// HTTPConfig configures the listener and request guards.
type HTTPConfig struct {
	Addr            string        `env:"LEADGATE_ADDR"            envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"        envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"       envDefault:"45s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT"    envDefault:"15s"`
	MaxBodyBytes    int64         `env:"HTTP_MAX_BODY_BYTES"      envDefault:"65536"`
	TrustedProxies  []string      `env:"HTTP_TRUSTED_PROXIES"     envSeparator:","`
}

// RedisConfig configures the shared go-redis client.
type RedisConfig struct {
	URL           string        `env:"REDIS_URL"`
	PoolSize      int           `env:"REDIS_POOL_SIZE"       envDefault:"10"`
	MinIdleConns  int           `env:"REDIS_MIN_IDLE_CONNS"  envDefault:"2"`
	DialTimeout   time.Duration `env:"REDIS_DIAL_TIMEOUT"    envDefault:"5s"`
	ReadTimeout   time.Duration `env:"REDIS_READ_TIMEOUT"    envDefault:"3s"`
	WriteTimeout  time.Duration `env:"REDIS_WRITE_TIMEOUT"   envDefault:"3s"`
	StatsInterval time.Duration `env:"REDIS_STATS_INTERVAL"  envDefault:"15s"`
}

// DatabaseConfig configures the Postgres pool.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS"     envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS"     envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME"  envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"1m"`
	PingTimeout     time.Duration `env:"DB_PING_TIMEOUT"       envDefault:"5s"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE"       envDefault:"false"`
}

// KafkaConfig configures the notification producer. Empty brokers disables it.
type KafkaConfig struct {
	Brokers         string        `env:"KAFKA_BROKERS"`
	Topic           string        `env:"KAFKA_NOTIFY_TOPIC"       envDefault:"leadgate.notifications"`
	Acks            string        `env:"KAFKA_ACKS"               envDefault:"all"`
	Retries         int           `env:"KAFKA_RETRIES"            envDefault:"3"`
	DeliveryTimeout time.Duration `env:"KAFKA_DELIVERY_TIMEOUT"   envDefault:"10s"`
}

// RateLimitConfig sets the per-submission sliding windows.
type RateLimitConfig struct {
	IPShortMax      int           `env:"RATELIMIT_IP_SHORT_MAX"      envDefault:"3"`
	IPShortWindow   time.Duration `env:"RATELIMIT_IP_SHORT_WINDOW"   envDefault:"1m"`
	IPLongMax       int           `env:"RATELIMIT_IP_LONG_MAX"       envDefault:"5"`
	IPLongWindow    time.Duration `env:"RATELIMIT_IP_LONG_WINDOW"    envDefault:"1h"`
	EmailMax        int           `env:"RATELIMIT_EMAIL_MAX"         envDefault:"5"`
	EmailWindow     time.Duration `env:"RATELIMIT_EMAIL_WINDOW"      envDefault:"1h"`
	PhoneMax        int           `env:"RATELIMIT_PHONE_MAX"         envDefault:"5"`
	PhoneWindow     time.Duration `env:"RATELIMIT_PHONE_WINDOW"      envDefault:"1h"`
	CleanupInterval time.Duration `env:"RATELIMIT_CLEANUP_INTERVAL"  envDefault:"5m"`
}

// CaptchaConfig selects and configures the CAPTCHA provider.
type CaptchaConfig struct {
	Provider  string        `env:"CAPTCHA_PROVIDER"`
	Secret    string        `env:"CAPTCHA_SECRET"`
	VerifyURL string        `env:"CAPTCHA_VERIFY_URL"`
	Timeout   time.Duration `env:"CAPTCHA_TIMEOUT"    envDefault:"5s"`
	MinScore  float64       `env:"CAPTCHA_MIN_SCORE"  envDefault:"0.5"`
}

// LedgerConfig configures submission authorization codes.
type LedgerConfig struct {
	TTL            time.Duration `env:"LEDGER_TTL"             envDefault:"5m"`
	ReaperInterval time.Duration `env:"LEDGER_REAPER_INTERVAL" envDefault:"1m"`
}

// OpModeConfig configures the outbound calling mode probe.
type OpModeConfig struct {
	HealthURL     string        `env:"OPMODE_HEALTH_URL"`
	ProbeTimeout  time.Duration `env:"OPMODE_PROBE_TIMEOUT"  envDefault:"30s"`
	CacheTTL      time.Duration `env:"OPMODE_CACHE_TTL"      envDefault:"5m"`
	VerdictTTL    time.Duration `env:"OPMODE_VERDICT_TTL"    envDefault:"30s"`
	SigningKey    string        `env:"OPMODE_SIGNING_KEY"`
	PrimaryNumber string        `env:"OPMODE_PRIMARY_NUMBER"`
	ReserveNumber string        `env:"OPMODE_RESERVE_NUMBER"`
}

// KillSwitchConfig configures the forms-enabled cache.
type KillSwitchConfig struct {
	CacheTTL time.Duration `env:"KILLSWITCH_CACHE_TTL" envDefault:"60s"`
}

// CRMConfig configures the default CRM client.
type CRMConfig struct {
	BaseURL string        `env:"CRM_BASE_URL"`
	APIKey  string        `env:"CRM_API_KEY"`
	Timeout time.Duration `env:"CRM_TIMEOUT"  envDefault:"10s"`
}

// DispatchConfig configures the outbound-call client.
type DispatchConfig struct {
	BaseURL string        `env:"DISPATCH_BASE_URL"`
	APIKey  string        `env:"DISPATCH_API_KEY"`
	AgentID string        `env:"DISPATCH_AGENT_ID"`
	Timeout time.Duration `env:"DISPATCH_TIMEOUT"   envDefault:"10s"`
}

// NotifyConfig configures notification sinks. An empty URL disables the webhook.
type NotifyConfig struct {
	WebhookURL      string        `env:"NOTIFY_WEBHOOK_URL"`
	Timeout         time.Duration `env:"NOTIFY_TIMEOUT"            envDefault:"5s"`
	BreakerFailures int           `env:"NOTIFY_BREAKER_FAILURES"   envDefault:"5"`
	BreakerCooldown time.Duration `env:"NOTIFY_BREAKER_COOLDOWN"   envDefault:"30s"`
}

// AdminConfig holds the bcrypt hash of the operator token.
type AdminConfig struct {
	TokenHash string `env:"ADMIN_TOKEN_HASH"`
}

// Load parses the process environment into a Server and validates it.
func Load() (Server, error) {
	return LoadFrom(nil)
}

// LoadFrom is Load over an explicit environment. A nil map reads the process
// environment.
func LoadFrom(environ map[string]string) (Server, error) {
	var cfg Server
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.Captcha.Provider = strings.ToLower(strings.TrimSpace(cfg.Captcha.Provider))
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c Server) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate rejects combinations the process cannot start with.
func (c Server) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("STORE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.IsProduction() {
		if c.Captcha.Provider == "" || c.Captcha.Provider == "none" {
			return fmt.Errorf("CAPTCHA_PROVIDER must be set in production")
		}
		if len(c.OpMode.SigningKey) < 32 {
			return fmt.Errorf("OPMODE_SIGNING_KEY must be at least 32 bytes in production")
		}
		if c.Admin.TokenHash == "" {
			return fmt.Errorf("ADMIN_TOKEN_HASH must be set in production")
		}
	}
	if c.Captcha.Provider != "" && c.Captcha.Provider != "none" && c.Captcha.Secret == "" {
		return fmt.Errorf("CAPTCHA_SECRET is required for provider %q", c.Captcha.Provider)
	}
	if c.Ledger.TTL <= 0 {
		return fmt.Errorf("LEDGER_TTL must be positive")
	}
	return nil
}
