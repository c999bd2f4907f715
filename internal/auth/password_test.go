package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	t.Run("Hash password successfully", func(t *testing.T) {
		password := "MySecurePassword123"
		hash, err := HashPassword(password)
		require.NoError(t, err)
		assert.NotEqual(t, password, hash)
	})

	t.Run("Hash is salted", func(t *testing.T) {
		hash1, err := HashPassword("MySecurePassword123")
		require.NoError(t, err)
		hash2, err := HashPassword("MySecurePassword123")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("Hash uses configured bcrypt cost", func(t *testing.T) {
		hash, err := HashPassword("TestPassword123")
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, BcryptCost, cost)
	})
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("MySecurePassword123")
	require.NoError(t, err)

	t.Run("Correct password", func(t *testing.T) {
		assert.NoError(t, VerifyPassword("MySecurePassword123", hash))
	})

	t.Run("Wrong password", func(t *testing.T) {
		assert.ErrorIs(t, VerifyPassword("mysecurepassword123", hash), ErrPasswordMismatch)
	})

	t.Run("Plain text stored value never matches", func(t *testing.T) {
		err := VerifyPassword("admin123", "admin123")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrPasswordMismatch)
	})
}

func TestValidatePasswordStrength(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		errMsg   string
	}{
		{"valid", "Password123", ""},
		{"unicode letters count", "Пароль2024", ""},
		{"too short", "Pass1", "at least 8 characters"},
		{"no number", "PasswordOnly", "at least one number"},
		{"no letter", "12345678", "at least one letter"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tc.password)
			if tc.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
