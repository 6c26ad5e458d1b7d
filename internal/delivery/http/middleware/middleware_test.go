package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"psych-booking-engine/config"
	"psych-booking-engine/internal/domain/entity"
	"psych-booking-engine/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (*AuthMiddleware, *jwt.Verifier, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	verifier := jwt.NewVerifier(config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Minute})
	return NewAuthMiddleware(verifier, client), verifier, mr
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := GetUserIDFromContext(r.Context())
		roleID, _ := GetRoleIDFromContext(r.Context())
		w.Header().Set("X-User", userID.String())
		w.Header().Set("X-Role", string(rune('0'+roleID)))
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate(t *testing.T) {
	auth, verifier, mr := newAuth(t)
	userID := uuid.New()
	token, tokenID, err := verifier.Issue(userID, entity.RoleIDClient)
	require.NoError(t, err)

	handler := auth.Authenticate(echoIdentity())

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "revoked")
	})

	t.Run("active token", func(t *testing.T) {
		require.NoError(t, mr.Set(AccessTokenKey(userID, tokenID), "1"))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, userID.String(), rec.Header().Get("X-User"))
		assert.Equal(t, "3", rec.Header().Get("X-Role"))
	})

	t.Run("not a bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "format")
	})

	t.Run("tampered token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token+"x")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func withRole(r *http.Request, roleID int) *http.Request {
	return r.WithContext(WithIdentity(r.Context(), Identity{UserID: uuid.New(), RoleID: roleID}))
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		mw     func(http.Handler) http.Handler
		roleID int
		want   int
	}{
		{"client on client route", RequireClient, entity.RoleIDClient, http.StatusOK},
		{"psychologist on client route", RequireClient, entity.RoleIDPsychologist, http.StatusForbidden},
		{"admin on admin route", RequireAdmin, entity.RoleIDAdmin, http.StatusOK},
		{"client on admin route", RequireAdmin, entity.RoleIDClient, http.StatusForbidden},
		{"psychologist on shared route", RequireClientOrPsychologist, entity.RoleIDPsychologist, http.StatusOK},
		{"admin on shared route", RequireClientOrPsychologist, entity.RoleIDAdmin, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.mw(ok).ServeHTTP(rec, withRole(httptest.NewRequest(http.MethodGet, "/", nil), tt.roleID))
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	RequireClient(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter_PerUser(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	handler := limiter.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) }))

	alice := uuid.New()
	post := func(userID uuid.UUID) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
		req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: userID}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, post(alice))
	assert.Equal(t, http.StatusCreated, post(alice))
	assert.Equal(t, http.StatusTooManyRequests, post(alice))
	assert.Equal(t, http.StatusCreated, post(uuid.New()))

	// Reads are never throttled.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	handler.ServeHTTP(rec, req.WithContext(WithIdentity(req.Context(), Identity{UserID: alice})))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRequestLogger_LogsAuthenticatedUser(t *testing.T) {
	auth, verifier, mr := newAuth(t)
	userID := uuid.New()
	token, tokenID, err := verifier.Issue(userID, entity.RoleIDClient)
	require.NoError(t, err)
	require.NoError(t, mr.Set(AccessTokenKey(userID, tokenID), "1"))

	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	handler := NewRequestLogger(log, nil).Handle(auth.Authenticate(echoIdentity()))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	out, err := io.ReadAll(&buf)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"user_id":"`+userID.String()+`"`)
	assert.Contains(t, string(out), `"status":204`)
	assert.Contains(t, string(out), `"path":"/api/v1/bookings"`)
}

func TestCORS_Preflight(t *testing.T) {
	handler := NewCORSMiddleware().Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/bookings", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowList(t *testing.T) {
	handler := NewCORSMiddleware("https://app.example.com").Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
