// Package store persists the forms_enabled setting.
package store

import "time"

// SettingKey names the durable kill-switch record.
const SettingKey = "forms_enabled"

// Setting is the durable kill-switch value.
type Setting struct {
	Enabled   bool
	UpdatedBy string
	UpdatedAt time.Time
}
