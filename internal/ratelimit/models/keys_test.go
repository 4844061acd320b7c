package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyString(t *testing.T) {
	assert.Equal(t, "ip:203.0.113.7:short", NewIPKey("203.0.113.7", "short").String())
	assert.Equal(t, "ip:2001_cdb8__c1:long", NewIPKey("2001:db8_:1", "long").String())
	assert.Equal(t, "email:jane@example.com", NewEmailKey(" Jane@Example.com ").String())
	assert.Equal(t, "phone:+15550102030", NewPhoneKey("+1 (555) 010-2030").String())
}

func TestKeySanitizationIsInjective(t *testing.T) {
	a := NewEmailKey("a:b@x.io").String()
	b := NewEmailKey("a_cb@x.io").String()
	assert.NotEqual(t, a, b)
}

func TestKeyExempt(t *testing.T) {
	assert.True(t, NewIPKey("unknown", "short").Exempt())
	assert.True(t, NewIPKey("UNKNOWN", "short").Exempt())
	assert.True(t, NewIPKey("", "short").Exempt())
	assert.True(t, NewEmailKey("   ").Exempt())
	assert.True(t, NewPhoneKey("call me").Exempt())
	assert.False(t, NewIPKey("198.51.100.2", "short").Exempt())
	assert.False(t, NewEmailKey("jane@example.com").Exempt())
}
