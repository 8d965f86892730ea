package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/config"
	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
)

type fakeIdentity struct {
	tokens map[string]string // token -> user id
	down   bool
}

func (f *fakeIdentity) Verify(_ context.Context, token string) (*domain.Identity, error) {
	if f.down {
		return nil, fmt.Errorf("verify: %w", domain.ErrStorageUnavailable)
	}
	if id, ok := f.tokens[token]; ok {
		return &domain.Identity{UserID: id}, nil
	}
	return nil, fmt.Errorf("verify: %w", domain.ErrUnauthorized)
}

func (f *fakeIdentity) DeleteUser(context.Context, string) error { return nil }

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{
		JWTSecret:         "testservlet",
		SupabaseJWTSecret: "supabase-secret",
	}
	provider := &fakeIdentity{tokens: map[string]string{"opaque": "user-from-provider"}}
	mw := NewMiddleware(cfg, provider, zap.NewNop())

	tests := []struct {
		name           string
		header         string
		cookieValue    string
		providerDown   bool
		expectedStatus int
		expectedUser   string
	}{
		{
			name:           "No Token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Cookie",
			cookieValue:    "invalid",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Valid Cookie",
			cookieValue:    generateTestToken(t, cfg.JWTSecret, "user-1", time.Minute),
			expectedStatus: http.StatusOK,
			expectedUser:   "user-1",
		},
		{
			name:           "Expired Cookie",
			cookieValue:    generateTestToken(t, cfg.JWTSecret, "user-1", -time.Minute),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Supabase Bearer",
			header:         "Bearer " + generateTestToken(t, cfg.SupabaseJWTSecret, "user-2", time.Minute),
			expectedStatus: http.StatusOK,
			expectedUser:   "user-2",
		},
		{
			name:           "Wrong Secret",
			header:         "Bearer " + generateTestToken(t, "other", "user-3", time.Minute),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Provider Verified",
			header:         "Bearer opaque",
			expectedStatus: http.StatusOK,
			expectedUser:   "user-from-provider",
		},
		{
			name:           "Provider Down",
			header:         "Bearer opaque",
			providerDown:   true,
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider.down = tt.providerDown

			req := httptest.NewRequest(http.MethodGet, "/api/v1/links", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookieValue != "" {
				req.AddCookie(&http.Cookie{Name: sessionCookie, Value: tt.cookieValue})
			}

			var gotUser string
			rr := httptest.NewRecorder()
			handler := mw.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ident, err := identityFrom(r.Context())
				require.NoError(t, err)
				gotUser = ident.UserID
				w.WriteHeader(http.StatusOK)
			}))

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedUser, gotUser)
		})
	}
}

func TestAuthMiddleware_WithoutProvider(t *testing.T) {
	mw := NewMiddleware(&config.Config{JWTSecret: "s"}, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer opaque")
	rr := httptest.NewRecorder()
	mw.AuthMiddleware(http.NotFoundHandler()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func generateTestToken(t *testing.T, secret, userID string, ttl time.Duration) string {
	t.Helper()
	claims := &sessionClaims{
		Email: userID + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return tokenString
}
