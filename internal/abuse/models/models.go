package models

// Kind classifies why a verdict was reached.
type Kind string

const (
	KindNone      Kind = "none"
	KindHoneypot  Kind = "honeypot"
	KindRateLimit Kind = "rate_limit"
	KindAdvisory  Kind = "advisory"
)

// Submission carries everything the engine inspects for one request.
type Submission struct {
	IP        string
	UserAgent string
	Name      string
	Email     string
	Phone     string
	// Honeypot maps honeypot field names to submitted values.
	Honeypot map[string]string
}

// Verdict is computed fresh per request. Blocked verdicts are hard rejects;
// IsBot without Blocked is advisory and the caller decides where to route.
type Verdict struct {
	IsBot   bool
	Blocked bool
	Reason  string
	Kind    Kind
	// Limiter is set when Kind is KindRateLimit.
	Limiter string
	// Signals lists every advisory signal that fired.
	Signals []string
}
