package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"ipv4 standard address", "192.168.1.47", "192.168.1.0"},
		{"ipv4 localhost", "127.0.0.1", "127.0.0.0"},
		{"ipv6 compressed address", "2001:db8:85a3::8a2e:370:7334", "2001:0db8:85a3::"},
		{"ipv6 loopback", "::1", "0000:0000:0000::"},
		{"empty string", "", "unknown"},
		{"unknown value", "unknown", "unknown"},
		{"invalid ip", "not-an-ip", "invalid"},
		{"ip with port", "192.168.1.1:8080", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnonymizeIP(tt.input))
		})
	}
}

func TestAnonymizeIPGroupsSameNetwork(t *testing.T) {
	assert.Equal(t, AnonymizeIP("192.168.1.1"), AnonymizeIP("192.168.1.255"))
	assert.NotEqual(t, AnonymizeIP("192.168.1.47"), AnonymizeIP("192.168.2.47"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", MaskEmail("jane.doe@example.com"))
	assert.Equal(t, "a***@b.com", MaskEmail("a@b.com"))
	assert.Equal(t, "invalid", MaskEmail("no-at-sign"))
	assert.Equal(t, "invalid", MaskEmail("@example.com"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "***67", MaskPhone("+1 (555) 123-4567"))
	assert.Equal(t, "invalid", MaskPhone("12"))
}
