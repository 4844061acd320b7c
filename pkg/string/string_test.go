package string

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"+1 (555) 010-2030": "+15550102030",
		"555.010.2030":      "5550102030",
		"1+2":               "12",
		"+":                 "",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "captcha_token", ToSnakeCase("CaptchaToken"))
	assert.Equal(t, "submission_code", ToSnakeCase("SubmissionCode"))
}
