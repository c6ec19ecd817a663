package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskearn/ledger/internal/services"
)

func protected(t *testing.T, wantUser int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, wantUser, userID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func bearer(t *testing.T, claims Claims) string {
	token, err := IssueToken(claims)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret")
	defer viper.Set("jwt.secret_key", "")

	valid := Claims{
		UserID:           7,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	expired := Claims{
		UserID:           7,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid token", header: bearer(t, valid), want: http.StatusNoContent},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", want: http.StatusUnauthorized},
		{name: "expired token", header: bearer(t, expired), want: http.StatusUnauthorized},
		{name: "no user id", header: bearer(t, Claims{}), want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			AuthMiddleware(protected(t, 7)).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	viper.Set("jwt.secret_key", "other-secret")
	header := bearer(t, Claims{UserID: 7})
	viper.Set("jwt.secret_key", "test-secret")
	defer viper.Set("jwt.secret_key", "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("Authorization", header)
	w := httptest.NewRecorder()

	AuthMiddleware(protected(t, 7)).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/topups/1/approve", nil)
	w := httptest.NewRecorder()
	RequireAdmin(ok).ServeHTTP(w, req.WithContext(WithUser(req.Context(), 7, "user")))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	RequireAdmin(ok).ServeHTTP(w, req.WithContext(WithUser(req.Context(), 1, RoleAdmin)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret")
	defer viper.Set("jwt.secret_key", "")

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	InitAuthMiddleware(client)
	defer InitAuthMiddleware(nil)

	header := bearer(t, Claims{UserID: 7})
	require.NoError(t, mr.Set(services.RevokedTokenKey(strings.TrimPrefix(header, "Bearer ")), "1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("Authorization", header)
	w := httptest.NewRecorder()

	AuthMiddleware(protected(t, 7)).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_EmptySecret(t *testing.T) {
	viper.Set("jwt.secret_key", "")

	_, err := IssueToken(Claims{UserID: 1, Role: RoleAdmin})
	assert.ErrorIs(t, err, services.ErrNoSigningKey)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1, Role: RoleAdmin}).SignedString([]byte(""))
	require.NoError(t, err)

	reached := false
	admin := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/topups/1/approve", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := httptest.NewRecorder()

	AuthMiddleware(RequireAdmin(admin)).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}
