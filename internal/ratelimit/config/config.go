package config

import (
	"time"

	platformconfig "leadgate/internal/platform/config"
	"leadgate/internal/ratelimit/models"
)

// Config holds the four per-submission windows, checked in order.
type Config struct {
	IPShort models.Limit
	IPLong  models.Limit
	Email   models.Limit
	Phone   models.Limit
}

// DefaultConfig returns 3/min and 5/hour per IP, 5/hour per email and phone.
func DefaultConfig() *Config {
	return &Config{
		IPShort: models.Limit{Name: models.LimiterIPShort, Max: 3, Window: time.Minute},
		IPLong:  models.Limit{Name: models.LimiterIPLong, Max: 5, Window: time.Hour},
		Email:   models.Limit{Name: models.LimiterEmail, Max: 5, Window: time.Hour},
		Phone:   models.Limit{Name: models.LimiterPhone, Max: 5, Window: time.Hour},
	}
}

// FromPlatform maps environment settings onto limiter windows, keeping the
// default for any non-positive value.
func FromPlatform(rl platformconfig.RateLimitConfig) *Config {
	cfg := DefaultConfig()
	apply(&cfg.IPShort, rl.IPShortMax, rl.IPShortWindow)
	apply(&cfg.IPLong, rl.IPLongMax, rl.IPLongWindow)
	apply(&cfg.Email, rl.EmailMax, rl.EmailWindow)
	apply(&cfg.Phone, rl.PhoneMax, rl.PhoneWindow)
	return cfg
}

func apply(l *models.Limit, maxRequests int, window time.Duration) {
	if maxRequests > 0 {
		l.Max = maxRequests
	}
	if window > 0 {
		l.Window = window
	}
}
