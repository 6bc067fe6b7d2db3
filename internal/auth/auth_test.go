package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certdocs/internal/apperr"
	"certdocs/internal/model"
)

var branchAdmin = model.Actor{
	ID:       "u-1",
	Email:    "adama@oocaa.local",
	Name:     "Adama Admin",
	Role:     model.RoleBranchAdmin,
	BranchID: "b-1",
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("secret", 8*time.Hour)

	token, err := svc.Issue(branchAdmin)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, branchAdmin, claims.Actor())
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenService_Verify(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	valid, err := svc.Issue(branchAdmin)
	require.NoError(t, err)

	expired := NewTokenService("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(branchAdmin)
	require.NoError(t, err)

	other, err := NewTokenService("another", time.Hour).Issue(branchAdmin)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: model.RoleHQAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantMsg string
	}{
		{name: "garbage", token: "not-a-token", wantMsg: "invalid token"},
		{name: "expired", token: old, wantMsg: "token has expired"},
		{name: "wrong key", token: other, wantMsg: "invalid token"},
		{name: "alg none", token: none, wantMsg: "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token)
			require.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
			assert.Equal(t, tt.wantMsg, apperr.MessageOf(err))
		})
	}

	_, err = svc.Verify(valid)
	assert.NoError(t, err)
}

func TestTokenService_NoKey(t *testing.T) {
	_, err := NewTokenService("", time.Hour).Issue(branchAdmin)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("Passw0rd!")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "Passw0rd!"))
	assert.False(t, CheckPassword(hash, "passw0rd!"))
	assert.False(t, CheckPassword("not-a-hash", "Passw0rd!"))
}
