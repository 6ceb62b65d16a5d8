package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/backend/internal/auth"
	"chatrelay/backend/internal/config"
)

var cfg = config.JWTConfig{Secret: "unit-test-secret", Issuer: "chatrelay", Expiration: time.Hour}

func TestToken_RoundTrip(t *testing.T) {
	token, err := auth.NewToken(cfg, "user_A")
	require.NoError(t, err)

	claims, err := auth.ParseToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "user_A", claims.UserID)
	assert.Equal(t, "user_A", claims.Subject)
	assert.Equal(t, "chatrelay", claims.Issuer)
}

func TestToken_Expired(t *testing.T) {
	expired := config.JWTConfig{Secret: cfg.Secret, Issuer: cfg.Issuer, Expiration: -time.Minute}
	token, err := auth.NewToken(expired, "user_A")
	require.NoError(t, err)

	_, err = auth.ParseToken(cfg, token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestToken_WrongSecret(t *testing.T) {
	token, err := auth.NewToken(cfg, "user_A")
	require.NoError(t, err)

	other := config.JWTConfig{Secret: "different-secret", Issuer: cfg.Issuer, Expiration: cfg.Expiration}
	_, err = auth.ParseToken(other, token)
	assert.Error(t, err)
}

func TestToken_RejectsUnexpectedSigningMethod(t *testing.T) {
	// forge an unsigned token claiming the "none" algorithm
	forged := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{UserID: "user_A"})
	raw, err := forged.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.ParseToken(cfg, raw)
	assert.Error(t, err)
}

func TestToken_Garbage(t *testing.T) {
	_, err := auth.ParseToken(cfg, "not-a-token")
	assert.Error(t, err)
}
