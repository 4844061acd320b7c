package models

import (
	"fmt"
	"strings"

	s "leadgate/pkg/string"
)

// KeyPrefix namespaces limiter buckets by identity kind.
type KeyPrefix string

const (
	KeyPrefixIP    KeyPrefix = "ip"
	KeyPrefixEmail KeyPrefix = "email"
	KeyPrefixPhone KeyPrefix = "phone"
)

// UnknownIdentifier is what the metadata middleware yields when the client
// address cannot be determined. It is never limited.
const UnknownIdentifier = "unknown"

// Key is a namespaced, sanitized bucket key.
type Key struct {
	prefix     KeyPrefix
	identifier string
	scope      string
}

// NewIPKey builds a key for a client address within a named window scope.
func NewIPKey(ip, scope string) Key {
	return Key{prefix: KeyPrefixIP, identifier: strings.TrimSpace(ip), scope: scope}
}

// NewEmailKey builds a key for a normalized email address.
func NewEmailKey(email string) Key {
	return Key{prefix: KeyPrefixEmail, identifier: s.NormalizeEmail(email)}
}

// NewPhoneKey builds a key for a normalized phone number.
func NewPhoneKey(phone string) Key {
	return Key{prefix: KeyPrefixPhone, identifier: s.NormalizePhone(phone)}
}

// Exempt reports whether the key carries no usable identity.
func (k Key) Exempt() bool {
	return k.identifier == "" || strings.EqualFold(k.identifier, UnknownIdentifier)
}

// String returns the storage key.
func (k Key) String() string {
	if k.scope == "" {
		return fmt.Sprintf("%s:%s", k.prefix, sanitizeKeySegment(k.identifier))
	}
	return fmt.Sprintf("%s:%s:%s", k.prefix, sanitizeKeySegment(k.identifier), sanitizeKeySegment(k.scope))
}

// sanitizeKeySegment escapes the delimiter so a crafted identifier containing
// ':' cannot land in another bucket. '_' is escaped first so the mapping stays
// injective: "a:b" -> "a_cb", "a_cb" -> "a__cb".
func sanitizeKeySegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}
