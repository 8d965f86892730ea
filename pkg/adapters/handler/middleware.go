package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/config"
	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/observability"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

const sessionCookie = "token"

type contextKey struct{}

// sessionClaims is shared by our own session tokens and Supabase access
// tokens: both carry the user id in sub and an email claim.
type sessionClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type Middleware struct {
	secrets  [][]byte
	identity ports.IdentityProvider
	logger   *zap.Logger
}

// NewMiddleware builds the auth middleware. identity may be nil, in which
// case only locally signed tokens are accepted.
func NewMiddleware(cfg *config.Config, identity ports.IdentityProvider, logger *zap.Logger) *Middleware {
	secrets := [][]byte{[]byte(cfg.JWTSecret)}
	if cfg.SupabaseJWTSecret != "" {
		secrets = append(secrets, []byte(cfg.SupabaseJWTSecret))
	}
	return &Middleware{secrets: secrets, identity: identity, logger: logger}
}

// AuthMiddleware resolves the caller from a bearer token or the session
// cookie and stores it in the request context.
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ident, err := m.authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				respondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			writeError(w, r, m.logger, err)
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	for _, secret := range m.secrets {
		claims := &sessionClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err == nil && parsed.Valid && claims.Subject != "" {
			return &domain.Identity{UserID: claims.Subject, Email: claims.Email}, nil
		}
	}

	if m.identity == nil {
		return nil, domain.ErrUnauthorized
	}
	return m.identity.Verify(ctx, token)
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// identityFrom returns the caller stored by AuthMiddleware.
func identityFrom(ctx context.Context) (*domain.Identity, error) {
	ident, ok := ctx.Value(contextKey{}).(*domain.Identity)
	if !ok || ident == nil {
		return nil, domain.ErrUnauthorized
	}
	return ident, nil
}

// Logger writes one access log line per request.
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
				zap.String("remoteAddr", r.RemoteAddr),
			)
		})
	}
}

// Metrics records request counts and latency labelled by route pattern.
func Metrics(collector *observability.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			collector.ObserveHTTP(r.Method, route, status, time.Since(start))
		})
	}
}
