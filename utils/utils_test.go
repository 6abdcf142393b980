package utils

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken()
	require.NoError(t, err)
	b, err := GenerateSecureToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	_, err = hex.DecodeString(a)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAdminToken_RoundTrip(t *testing.T) {
	token, expires, err := GenerateAdminToken(7, "root", "s3cret", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := ParseAdminToken(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AdminID)
	assert.Equal(t, "root", claims.Username)

	_, err = ParseAdminToken(token, "other")
	assert.Error(t, err)
}

func TestAdminToken_Expired(t *testing.T) {
	token, _, err := GenerateAdminToken(1, "root", "s3cret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseAdminToken(token, "s3cret")
	assert.Error(t, err)
}

func TestValidateStruct(t *testing.T) {
	type req struct {
		Email    string `validate:"required,email"`
		Username string `validate:"required,min=3"`
	}

	assert.NoError(t, ValidateStruct(req{Email: "a@b.com", Username: "abc"}))

	err := ValidateStruct(req{Email: "nope", Username: "ab"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "username must be at least 3 characters")

	err = ValidateStruct(req{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email is required")
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("test", 3*3600)
	in := time.Date(2024, 5, 6, 23, 59, 1, 5, loc)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, loc), StartOfDay(in))
}

func TestClampPage(t *testing.T) {
	page, limit := ClampPage(0, 0, 50, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 50, limit)

	page, limit = ClampPage(3, 500, 50, 100)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, limit)
}

func TestNewPaginatedResponse(t *testing.T) {
	p := NewPaginatedResponse([]int{1}, 101, 2, 50)
	assert.Equal(t, 3, p.Pages)
	assert.Equal(t, int64(101), p.Total)
}
