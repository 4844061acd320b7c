package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHoneypot(t *testing.T) {
	tripped, field := Honeypot(map[string]string{"website": "", "fax": "   "})
	assert.False(t, tripped)
	assert.Empty(t, field)

	tripped, field = Honeypot(map[string]string{"company_website": "http://spam.example"})
	assert.True(t, tripped)
	assert.Equal(t, "company_website", field)

	tripped, _ = Honeypot(map[string]string{"notes": "filled"})
	assert.False(t, tripped, "only known honeypot names count")
}

func TestUserAgent(t *testing.T) {
	tests := []struct {
		name       string
		ua         string
		suspicious bool
		reason     string
	}{
		{"safari", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15", false, ""},
		{"chrome android", "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36", false, ""},
		{"empty", "  ", true, "ua_missing"},
		{"curl", "curl/8.4.0", true, "ua_curl"},
		{"python", "python-requests/2.31.0", true, "ua_python-requests"},
		{"go client", "Go-http-client/1.1", true, "ua_go-http-client"},
		{"googlebot", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", true, "ua_bot"},
		{"headless chrome", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) HeadlessChrome/120.0.0.0 Safari/537.36", true, "ua_headless"},
		{"java", "Java/17.0.2", true, "ua_java"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suspicious, reason := UserAgent(tt.ua)
			assert.Equal(t, tt.suspicious, suspicious)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestNameShape(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		plausible bool
		reason    string
	}{
		{"simple name", "John", true, ""},
		{"full name", "Jane Doe", true, ""},
		{"hyphenated", "Mary-Ann O'Neill", true, ""},
		{"y as vowel", "Lynn", true, ""},
		{"long real name", "Bartholomew", true, ""},
		{"vowel heavy", "Aoife", true, ""},
		{"non latin", "Владимир", true, ""},
		{"cjk", "王小明", true, ""},
		{"keyboard row", "asdfgh", false, "name_keyboard_sequence"},
		{"reverse keyboard row", "Trewq", false, "name_keyboard_sequence"},
		{"repetition", "aaaaaa", false, "name_repetition"},
		{"no vowels", "Brdkt Xzvm", false, "name_vowel_ratio"},
		{"consonant run", "Ekdrststo", false, "name_consonant_run"},
		{"all unique long word", "Waldemoxiruf", false, "name_unique_ratio"},
		{"digits only", "12345", false, "name_no_letters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plausible, reason := NameShape(tt.input)
			assert.Equal(t, tt.plausible, plausible)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestNameShapeRejectsTwelveDistinctConsonants(t *testing.T) {
	plausible, reason := NameShape("bcdfpqzxtvwr")
	assert.False(t, plausible)
	assert.Contains(t, []string{"name_vowel_ratio", "name_unique_ratio"}, reason)
}
