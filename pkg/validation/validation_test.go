package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "leadgate/pkg/domain-errors"
)

type sample struct {
	Name  string `validate:"required,notblank,max=100"`
	Email string `validate:"required,email"`
	Phone string `validate:"omitempty,phone"`
}

func TestValidateMessages(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"missing name", sample{Email: "a@b.co"}, "name is required"},
		{"blank name", sample{Name: "   ", Email: "a@b.co"}, "name must not be blank"},
		{"bad email", sample{Name: "Jane", Email: "nope"}, "email must be a valid email"},
		{"bad phone", sample{Name: "Jane", Email: "a@b.co", Phone: "12ab"}, "phone must be a valid phone number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestValidateAcceptsGoodInput(t *testing.T) {
	assert.NoError(t, Validate(sample{Name: "Jane", Email: "jane@example.com", Phone: "+15550102030"}))
}
