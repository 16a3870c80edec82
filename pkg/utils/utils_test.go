package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = strings.Repeat("ab", 32)

func TestTokenCipherRoundTrip(t *testing.T) {
	c, err := NewTokenCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("ya29.access-token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "ya29")
	assert.True(t, strings.HasPrefix(sealed, "v1."))

	again, err := c.Encrypt("ya29.access-token")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "each value gets a fresh data key")

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access-token", plain)
}

func TestTokenCipherEmptyValue(t *testing.T) {
	c, err := NewTokenCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	plain, err := c.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestTokenCipherRejectsTampering(t *testing.T) {
	c, err := NewTokenCipher(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("secret")
	require.NoError(t, err)

	parts := strings.Split(sealed, ".")
	sealedPart := []byte(parts[2])
	if sealedPart[0] == 'A' {
		sealedPart[0] = 'B'
	} else {
		sealedPart[0] = 'A'
	}
	parts[2] = string(sealedPart)

	_, err = c.Decrypt(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = c.Decrypt("plaintext-token")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	other, err := NewTokenCipher(strings.Repeat("cd", 32))
	require.NoError(t, err)
	_, err = other.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewTokenCipherKeyValidation(t *testing.T) {
	_, err := NewTokenCipher("zz")
	assert.Error(t, err)

	_, err = NewTokenCipher(strings.Repeat("ab", 16))
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	token, err := GenerateToken("secret", "7", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.UserID)

	_, err = ValidateToken("other", token)
	assert.Error(t, err)

	expired, err := GenerateToken("secret", "7", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken("secret", expired)
	assert.ErrorIs(t, err, ErrInvalidSession)

	anonymous, err := GenerateToken("secret", "", time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken("secret", anonymous)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	require.NoError(t, err)
	b, err := GenerateState()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	for _, r := range a {
		assert.True(t, strings.ContainsRune(stateAlphabet, r))
	}
}
