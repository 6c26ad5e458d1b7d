package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"psych-booking-engine/pkg/jwt"
	"psych-booking-engine/pkg/response"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Identity is the authenticated caller, resolved from the access token.
type Identity struct {
	UserID  uuid.UUID
	RoleID  int
	TokenID string
}

type identityKey struct{}

// AccessTokenKeyPrefix is the allow-list written by the auth service at login
// and removed at logout: access_token:<user id>:<token id>.
const AccessTokenKeyPrefix = "access_token:"

// AccessTokenKey is the redis key whose presence marks a token as live.
func AccessTokenKey(userID uuid.UUID, tokenID string) string {
	return AccessTokenKeyPrefix + userID.String() + ":" + tokenID
}

type AuthMiddleware struct {
	verifier    *jwt.Verifier
	redisClient *redis.Client
}

func NewAuthMiddleware(verifier *jwt.Verifier, redisClient *redis.Client) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:    verifier,
		redisClient: redisClient,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.verifier.Verify(tokenString)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			response.Unauthorized(w, "Token has expired")
			return
		case errors.Is(err, jwt.ErrNotAccessToken):
			response.Unauthorized(w, "Invalid token type")
			return
		case err != nil:
			response.Unauthorized(w, "Invalid token")
			return
		}

		// Logout deletes the key, so a missing key means revoked.
		exists, err := m.redisClient.Exists(r.Context(), AccessTokenKey(claims.UserID, claims.TokenID)).Result()
		if err != nil {
			response.InternalServerError(w, "Failed to validate token")
			return
		}
		if exists == 0 {
			response.Unauthorized(w, "Token has been revoked")
			return
		}

		ctx := WithIdentity(r.Context(), Identity{
			UserID:  claims.UserID,
			RoleID:  claims.RoleID,
			TokenID: claims.TokenID,
		})
		setRequestUser(ctx, claims.UserID.String())

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithIdentity attaches the caller to ctx. Background jobs and tests use it directly.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}

// GetRoleIDFromContext extracts role ID from context
func GetRoleIDFromContext(ctx context.Context) (int, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.RoleID, ok
}
