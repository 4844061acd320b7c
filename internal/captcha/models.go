package captcha

// ProviderName identifies the active verification backend.
type ProviderName string

const (
	ProviderNone      ProviderName = "none"
	ProviderTurnstile ProviderName = "turnstile"
	ProviderHCaptcha  ProviderName = "hcaptcha"
	ProviderReCaptcha ProviderName = "recaptcha"
)

// Error codes produced locally, alongside whatever the provider returns.
const (
	CodeMissingToken = "missing-input-response"
	CodeNetwork      = "network-error"
	CodeBadStatus    = "bad-status"
	CodeParse        = "parse-error"
	CodeLowScore     = "score-too-low"
)

// Verdict is the outcome of one verification.
type Verdict struct {
	IsValid    bool
	Provider   ProviderName
	ErrorCodes []string
	// Score is reported by score-based providers only.
	Score *float64
}

func invalid(p ProviderName, codes ...string) Verdict {
	return Verdict{IsValid: false, Provider: p, ErrorCodes: codes}
}
