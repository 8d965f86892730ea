package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/wadjakorntonsri/linkhub/pkg/config"
)

// fakeGoogle serves the token and userinfo endpoints of the OAuth flow.
func fakeGoogle(t *testing.T, email string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"google-42","email":"` + email + `","verified_email":true}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestAuthHandler(srv *httptest.Server, allowed []string) *AuthHandler {
	h := NewAuthHandler(&config.Config{
		JWTSecret:     testSecret,
		FrontendURL:   "http://frontend.test",
		AllowedEmails: allowed,
	}, zap.NewNop())
	h.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	h.userInfoURL = srv.URL + "/userinfo"
	return h
}

func callback(h *AuthHandler, state, cookieState string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state="+url.QueryEscape(state), nil)
	req.AddCookie(&http.Cookie{Name: "oauthstate", Value: cookieState})
	rr := httptest.NewRecorder()
	h.Callback(rr, req)
	return rr
}

func TestAuthHandler_LoginSetsState(t *testing.T) {
	h := newTestAuthHandler(fakeGoogle(t, "a@example.com"), nil)

	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "oauthstate", cookies[0].Name)
	assert.Contains(t, rr.Header().Get("Location"), "state="+url.QueryEscape(cookies[0].Value))
}

func TestAuthHandler_CallbackIssuesSession(t *testing.T) {
	h := newTestAuthHandler(fakeGoogle(t, "a@example.com"), nil)

	rr := callback(h, "s1", "s1")

	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "http://frontend.test", rr.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(session.Value, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "google-42", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestAuthHandler_CallbackRejections(t *testing.T) {
	srv := fakeGoogle(t, "intruder@example.com")

	rr := callback(newTestAuthHandler(srv, nil), "s1", "other")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = callback(newTestAuthHandler(srv, []string{"owner@example.com"}), "s1", "s1")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAuthHandler_LogoutClearsCookie(t *testing.T) {
	h := newTestAuthHandler(fakeGoogle(t, "a@example.com"), nil)

	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))

	assert.Equal(t, "http://frontend.test/login", rr.Header().Get("Location"))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}
