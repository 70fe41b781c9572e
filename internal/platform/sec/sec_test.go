// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plume/internal/platform/sec"
)

/*
TestGenerateOTPCode checks the code shape across many draws.
*/
func TestGenerateOTPCode(t *testing.T) {
	for range 200 {
		code, err := sec.GenerateOTPCode()
		require.NoError(t, err)
		assert.Len(t, code, sec.OTPDigits)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

/*
TestPasswordHash verifies bcrypt round trip and rejection of a wrong password.
*/
func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("correct horse", hash))
	assert.False(t, sec.CheckPasswordHash("wrong horse", hash))
}

/*
TestGrantSigner covers purpose binding and expiry.
*/
func TestGrantSigner(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	signer := sec.NewGrantSigner("test-secret", "plume.test", 15*time.Minute).
		WithClock(func() time.Time { return now })

	grant, err := signer.IssueGrant("ayoub@example.com", "registration", "")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		claims, err := signer.VerifyGrant(grant, "registration")
		require.NoError(t, err)
		assert.Equal(t, "ayoub@example.com", claims.Subject)
	})

	t.Run("wrong_purpose", func(t *testing.T) {
		_, err := signer.VerifyGrant(grant, "password_reset")
		assert.ErrorIs(t, err, sec.ErrInvalidGrant)
	})

	t.Run("expired", func(t *testing.T) {
		now = now.Add(16 * time.Minute)
		_, err := signer.VerifyGrant(grant, "registration")
		assert.ErrorIs(t, err, sec.ErrInvalidGrant)
	})
}

/*
TestTokenService signs and verifies an access token with a generated key pair.
*/
func TestTokenService(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	service := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "plume.test")
	token, err := service.GenerateAccessToken("author-1", "inkwell", string(sec.RoleAuthor), time.Minute)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "author-1", claims.UserID)
	assert.False(t, claims.IsAdmin())
}
