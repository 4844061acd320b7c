// Package signals holds the static bot checks run on every submission.
package signals

import "strings"

// HoneypotFields are rendered hidden on every form; browsers used by people
// leave them empty.
var HoneypotFields = []string{"website", "url", "company_website", "fax", "middle_name_hp", "hp_field"}

// Honeypot returns the first honeypot field carrying a non-blank value.
// Field names not in HoneypotFields are ignored.
func Honeypot(values map[string]string) (tripped bool, field string) {
	for _, name := range HoneypotFields {
		if strings.TrimSpace(values[name]) != "" {
			return true, name
		}
	}
	return false, ""
}
