package jwt

import (
	"testing"
	"time"

	"psych-booking-engine/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_RoundTripCarriesRole(t *testing.T) {
	v := NewVerifier(config.JWTConfig{Secret: "s3cret", AccessExpiry: time.Minute})
	userID := uuid.New()

	token, tokenID, err := v.Issue(userID, 3)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, 3, claims.RoleID)
	assert.Equal(t, tokenID, claims.TokenID)
	assert.Equal(t, AccessToken, claims.TokenType)
}

func TestVerifier_RejectsForeignSecret(t *testing.T) {
	issuer := NewVerifier(config.JWTConfig{Secret: "one", AccessExpiry: time.Minute})
	verifier := NewVerifier(config.JWTConfig{Secret: "two", AccessExpiry: time.Minute})

	token, _, err := issuer.Issue(uuid.New(), 1)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifier_RejectsExpired(t *testing.T) {
	v := NewVerifier(config.JWTConfig{Secret: "s3cret", AccessExpiry: -time.Minute})

	token, _, err := v.Issue(uuid.New(), 1)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifier_ToleratesSmallClockSkew(t *testing.T) {
	v := NewVerifier(config.JWTConfig{Secret: "s3cret", AccessExpiry: -5 * time.Second})

	token, _, err := v.Issue(uuid.New(), 1)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.NoError(t, err)
}

func TestVerifier_RejectsRefreshToken(t *testing.T) {
	v := NewVerifier(config.JWTConfig{Secret: "s3cret", AccessExpiry: time.Minute})
	claims := Claims{
		UserID:    uuid.New(),
		TokenType: RefreshToken,
		TokenID:   uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrNotAccessToken)
}

func TestVerifier_RejectsOtherAlgorithms(t *testing.T) {
	v := NewVerifier(config.JWTConfig{Secret: "s3cret", AccessExpiry: time.Minute})
	claims := Claims{
		UserID:    uuid.New(),
		TokenType: AccessToken,
		TokenID:   uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
