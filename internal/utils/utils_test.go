package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestGenerateReference(t *testing.T) {
	ref := GenerateReference("PAY")
	parts := strings.Split(ref, "_")
	require.Len(t, parts, 3)
	assert.Equal(t, "PAY", parts[0])
	assert.Equal(t, time.Now().Format("20060102"), parts[1])
	assert.Len(t, parts[2], 8)

	assert.NotEqual(t, ref, GenerateReference("PAY"))
}

func TestGenerateReferralCode(t *testing.T) {
	code := GenerateReferralCode(10)
	assert.Len(t, code, 10)
	assert.NotEqual(t, code, GenerateReferralCode(10))
}

func TestGenerateAndValidateToken(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(userID, "user@example.com", false, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.False(t, claims.IsAdmin)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(userID, "user@example.com", false, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}
