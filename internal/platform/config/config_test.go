package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 3, cfg.RateLimit.IPShortMax)
	assert.Equal(t, time.Minute, cfg.RateLimit.IPShortWindow)
	assert.Equal(t, 5, cfg.RateLimit.IPLongMax)
	assert.Equal(t, time.Hour, cfg.RateLimit.IPLongWindow)
	assert.Equal(t, 5*time.Minute, cfg.Ledger.TTL)
	assert.Equal(t, time.Minute, cfg.Ledger.ReaperInterval)
	assert.Equal(t, 30*time.Second, cfg.OpMode.ProbeTimeout)
	assert.Equal(t, 5*time.Minute, cfg.OpMode.CacheTTL)
	assert.Equal(t, 60*time.Second, cfg.KillSwitch.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.Captcha.Timeout)
	assert.Equal(t, "leadgate.notifications", cfg.Kafka.Topic)
}

func TestLoadParsesTrustedProxies(t *testing.T) {
	t.Setenv("HTTP_TRUSTED_PROXIES", "10.0.0.0/8,173.245.48.0/20")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "173.245.48.0/20"}, cfg.HTTP.TrustedProxies)
}

func TestLoadFromExplicitEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")

	cfg, err := LoadFrom(map[string]string{
		"STORE_BACKEND":    " Redis ",
		"REDIS_URL":        "redis://localhost:6379/0",
		"CAPTCHA_PROVIDER": "Turnstile",
		"CAPTCHA_SECRET":   "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, "turnstile", cfg.Captcha.Provider)
	assert.Equal(t, 10*time.Second, cfg.CRM.Timeout)
}

func TestValidate(t *testing.T) {
	base := func() Server {
		return Server{
			Environment:  "development",
			StoreBackend: BackendMemory,
			Ledger:       LedgerConfig{TTL: 5 * time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Server)
		wantErr string
	}{
		{"memory ok", func(*Server) {}, ""},
		{"unknown backend", func(s *Server) { s.StoreBackend = "etcd" }, "unknown STORE_BACKEND"},
		{"postgres without url", func(s *Server) { s.StoreBackend = BackendPostgres }, "DATABASE_URL"},
		{"redis without url", func(s *Server) { s.StoreBackend = BackendRedis }, "REDIS_URL"},
		{"captcha bypass refused in production", func(s *Server) {
			s.Environment = "production"
			s.OpMode.SigningKey = "0123456789abcdef0123456789abcdef"
			s.Admin.TokenHash = "hash"
		}, "CAPTCHA_PROVIDER"},
		{"short signing key in production", func(s *Server) {
			s.Environment = "production"
			s.Captcha = CaptchaConfig{Provider: "turnstile", Secret: "s"}
			s.OpMode.SigningKey = "short"
		}, "OPMODE_SIGNING_KEY"},
		{"provider without secret", func(s *Server) { s.Captcha.Provider = "hcaptcha" }, "CAPTCHA_SECRET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
