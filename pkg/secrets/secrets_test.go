package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "leadgate/pkg/domain-errors"
)

func TestGenerateIsURLSafeAndUnique(t *testing.T) {
	a, err := Generate(32)
	require.NoError(t, err)
	b, err := Generate(32)
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("operator-secret")
	require.NoError(t, err)

	assert.NoError(t, Verify("operator-secret", hash))
	assert.True(t, dErrors.HasCode(Verify("wrong", hash), dErrors.CodeUnauthorized))

	_, err = Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
