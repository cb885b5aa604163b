package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	require.NotEqual(t, "secret1", hash)

	require.True(t, CheckPasswordHash("secret1", hash))
	require.False(t, CheckPasswordHash("secret2", hash))
	require.False(t, CheckPasswordHash("secret1", "not-a-bcrypt-hash"))
}

func TestGenerateOTP(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		code, err := GenerateOTP(length)
		require.NoError(t, err)
		require.Len(t, code, length)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "non-digit %q in %q", c, code)
		}
	}

	_, err := GenerateOTP(0)
	require.Error(t, err)
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "a@b.com", NormalizeEmail("  A@B.CoM "))
	require.Equal(t, "a@b.com", NormalizeEmail("a@b.com"))
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.com", "first.last@sub.example.org"}
	for _, email := range valid {
		require.True(t, IsValidEmail(email), email)
	}

	invalid := []string{"", "nope", "@b.com", "a@", "a@b"}
	for _, email := range invalid {
		require.False(t, IsValidEmail(email), email)
	}
}
