package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/config"
	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/observability"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

type stubLinks struct {
	ports.LinkService
	reorderedWith []string
	reorderErr    error
	clickedID     string
	clickedIP     string
}

func (s *stubLinks) ListLinks(_ context.Context, ownerID string) ([]domain.Link, error) {
	return []domain.Link{{ID: "l1", OwnerID: ownerID}}, nil
}

func (s *stubLinks) CreateLink(_ context.Context, ownerID, title, url string) (*domain.Link, error) {
	return &domain.Link{ID: "new", OwnerID: ownerID, Title: title, URL: url, Position: 1}, nil
}

func (s *stubLinks) ReorderLinks(_ context.Context, ownerID string, ids []string) ([]domain.Link, error) {
	s.reorderedWith = ids
	if s.reorderErr != nil {
		return nil, s.reorderErr
	}
	out := make([]domain.Link, len(ids))
	for i, id := range ids {
		out[i] = domain.Link{ID: id, OwnerID: ownerID, Position: i}
	}
	return out, nil
}

func (s *stubLinks) RecordClick(_ context.Context, linkID, _, _, ip string) error {
	s.clickedID, s.clickedIP = linkID, ip
	return nil
}

type stubLayout struct {
	ports.LayoutService
}

func (s *stubLayout) UpdateBlock(_ context.Context, ownerID, id string, visible *bool, alignment *domain.Alignment) (*domain.LayoutBlock, error) {
	b := &domain.LayoutBlock{ID: id, OwnerID: ownerID, Visible: true, Alignment: domain.AlignCenter}
	if visible != nil {
		b.Visible = *visible
	}
	if alignment != nil {
		b.Alignment = *alignment
	}
	return b, nil
}

type stubProfiles struct {
	ports.ProfileService
	byUser map[string]*domain.Profile
	update ports.ProfileUpdate
	avatar []byte
}

func (s *stubProfiles) GetByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	if p, ok := s.byUser[userID]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
}

func (s *stubProfiles) UpdateProfile(_ context.Context, userID string, update ports.ProfileUpdate) (*domain.Profile, error) {
	s.update = update
	if update.Avatar != nil {
		data, err := io.ReadAll(update.Avatar.Data)
		if err != nil {
			return nil, err
		}
		s.avatar = data
	}
	return s.byUser[userID], nil
}

const testSecret = "handler-test-secret"

type testServer struct {
	handler  http.Handler
	links    *stubLinks
	profiles *stubProfiles
	metrics  *observability.Collector
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:      testSecret,
		MaxAvatarBytes: 1 << 20,
		CORSOrigins:    []string{"http://localhost:3000"},
	}
	ts := &testServer{
		links: &stubLinks{},
		profiles: &stubProfiles{byUser: map[string]*domain.Profile{
			"user-1": {ID: "profile-1", UserID: "user-1", PublicLink: "janedoe"},
		}},
		metrics: observability.NewCollector("test"),
	}
	ts.handler = NewRouter(cfg, Services{
		Links:    ts.links,
		Layout:   &stubLayout{},
		Profiles: ts.profiles,
	}, ts.metrics, zap.NewNop())
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, user string, body io.Reader, contentType string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+generateTestToken(t, testSecret, user, time.Minute))
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	var resp Response
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("reorder: %w", domain.ErrInvalidReference), http.StatusBadRequest},
		{fmt.Errorf("%w: title", domain.ErrValidation), http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{fmt.Errorf("apply: %w: %w", domain.ErrStorageUnavailable, errors.New("disk")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rr, resp := ts.do(t, http.MethodGet, "/healthz", "", nil, "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "success", resp.Status)
}

func TestReorderLinks(t *testing.T) {
	ts := newTestServer(t)

	rr, resp := ts.do(t, http.MethodPost, "/api/v1/links/reorder", "user-1",
		strings.NewReader(`{"ids":["c","a","b"]}`), "application/json")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, []string{"c", "a", "b"}, ts.links.reorderedWith)
	assert.Len(t, resp.Data, 3)
}

func TestReorderLinks_InvalidReference(t *testing.T) {
	ts := newTestServer(t)
	ts.links.reorderErr = fmt.Errorf("reorder links: %w", domain.ErrInvalidReference)

	rr, resp := ts.do(t, http.MethodPost, "/api/v1/links/reorder", "user-1",
		strings.NewReader(`{"ids":["x"]}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Message, "invalid reference")
}

func TestReorderLinks_StorageUnavailableHidesDetails(t *testing.T) {
	ts := newTestServer(t)
	ts.links.reorderErr = fmt.Errorf("apply: %w: %w", domain.ErrStorageUnavailable, errors.New("secret dsn"))

	rr, resp := ts.do(t, http.MethodPost, "/api/v1/links/reorder", "user-1",
		strings.NewReader(`{"ids":[]}`), "application/json")

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NotContains(t, resp.Message, "secret dsn")
}

func TestLinks_RequireAuthAndProfile(t *testing.T) {
	ts := newTestServer(t)

	rr, _ := ts.do(t, http.MethodGet, "/api/v1/links", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, resp := ts.do(t, http.MethodGet, "/api/v1/links", "user-without-profile", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "error", resp.Status)
}

func TestCreateLink_Validation(t *testing.T) {
	ts := newTestServer(t)

	rr, resp := ts.do(t, http.MethodPost, "/api/v1/links", "user-1",
		strings.NewReader(`{"title":"ab","url":"not a url"}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, resp.Message, "title must be at least 3 characters")
	assert.Contains(t, resp.Message, "url must be a valid url")

	rr, _ = ts.do(t, http.MethodPost, "/api/v1/links", "user-1",
		strings.NewReader(`{"title":"My site","url":"https://example.com"}`), "application/json")
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestRecordClick_IsPublic(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/links/l1/click", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "l1", ts.links.clickedID)
	assert.Equal(t, "203.0.113.7", ts.links.clickedIP)
}

func TestUpdateBlock_RejectsUnknownAlignment(t *testing.T) {
	ts := newTestServer(t)

	rr, _ := ts.do(t, http.MethodPatch, "/api/v1/layout/b1", "user-1",
		strings.NewReader(`{"alignment":"justify"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, resp := ts.do(t, http.MethodPatch, "/api/v1/layout/b1", "user-1",
		strings.NewReader(`{"visible":false}`), "application/json")
	require.Equal(t, http.StatusOK, rr.Code)
	block := resp.Data.(map[string]any)
	assert.Equal(t, false, block["visible"])
	assert.Equal(t, "center", block["alignment"])
}

func TestUpdateProfile_Multipart(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("bio", "hello there"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rr, _ := ts.do(t, http.MethodPatch, "/api/v1/profile", "user-1", &body, mw.FormDataContentType())

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, ts.profiles.update.Bio)
	assert.Equal(t, "hello there", *ts.profiles.update.Bio)
	assert.Nil(t, ts.profiles.update.DisplayName)
	require.NotNil(t, ts.profiles.update.Avatar)
	assert.Equal(t, "me.png", ts.profiles.update.Avatar.Filename)
	assert.Equal(t, "image/png", ts.profiles.update.Avatar.ContentType)
	assert.Equal(t, []byte("png-bytes"), ts.profiles.avatar)
}

func TestUpdateProfile_RejectsNonImageAvatar(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("avatar", "script.sh")
	require.NoError(t, err)
	_, err = part.Write([]byte("#!/bin/sh"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rr, _ := ts.do(t, http.MethodPatch, "/api/v1/profile", "user-1", &body, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetrics_RecordRoutePattern(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPatch, "/api/v1/layout/b1", "user-1", strings.NewReader(`{"visible":true}`), "application/json")

	rr, _ := ts.do(t, http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `route="/api/v1/layout/{id}"`)
}
