package models

import "time"

// Limiter names, used in logs, metrics and block reasons.
const (
	LimiterIPShort = "ip_short"
	LimiterIPLong  = "ip_long"
	LimiterEmail   = "email"
	LimiterPhone   = "phone"
)

// Limit is one sliding window: at most Max recorded events per Window.
type Limit struct {
	Name   string
	Max    int
	Window time.Duration
}

// Identity is the raw submitter identity checked per submission.
type Identity struct {
	IP    string
	Email string
	Phone string
}

// Decision is the outcome of checking every limiter for one submission.
type Decision struct {
	Exceeded bool
	// Limiter names the first limiter found exhausted.
	Limiter string
	// Window of the exhausted limiter.
	Window time.Duration
}
