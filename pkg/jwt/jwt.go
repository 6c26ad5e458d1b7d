package jwt

import (
	"errors"
	"time"

	"psych-booking-engine/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// clockSkew tolerated between this service and the auth service that signs tokens.
const clockSkew = 30 * time.Second

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrNotAccessToken = errors.New("not an access token")
)

type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	RoleID    int       `json:"role_id"`
	TokenType TokenType `json:"token_type"`
	TokenID   string    `json:"token_id"`
	jwt.RegisteredClaims
}

// Verifier checks access tokens signed by the auth service with the shared secret.
// The booking engine never issues tokens for end users.
type Verifier struct {
	secret []byte
	expiry time.Duration
	parser *jwt.Parser
}

func NewVerifier(cfg config.JWTConfig) *Verifier {
	return &Verifier{
		secret: []byte(cfg.Secret),
		expiry: cfg.AccessExpiry,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

// Verify parses an access token. Refresh tokens are rejected with ErrNotAccessToken.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, ErrInvalidToken
	}

	if claims.TokenType != AccessToken {
		return nil, ErrNotAccessToken
	}
	if claims.UserID == uuid.Nil || claims.TokenID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Issue signs an access token in the auth service's format. Used by seed tooling and tests.
func (v *Verifier) Issue(userID uuid.UUID, roleID int) (token string, tokenID string, err error) {
	now := time.Now()
	tokenID = uuid.NewString()
	claims := Claims{
		UserID:    userID,
		RoleID:    roleID,
		TokenType: AccessToken,
		TokenID:   tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(v.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", "", err
	}
	return token, tokenID, nil
}
