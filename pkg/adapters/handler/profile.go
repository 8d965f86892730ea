package handler

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

// ownerResolver maps the authenticated user to the profile that owns their
// links and layout.
type ownerResolver struct {
	profiles ports.ProfileService
}

func (o ownerResolver) ownerID(r *http.Request) (string, error) {
	ident, err := identityFrom(r.Context())
	if err != nil {
		return "", err
	}
	profile, err := o.profiles.GetByUserID(r.Context(), ident.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("profile for current user: %w", domain.ErrNotFound)
		}
		return "", err
	}
	return profile.ID, nil
}

type ProfileHandler struct {
	service        ports.ProfileService
	maxAvatarBytes int64
	logger         *zap.Logger
}

func NewProfileHandler(service ports.ProfileService, maxAvatarBytes int64, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, maxAvatarBytes: maxAvatarBytes, logger: logger}
}

type CreateProfileRequest struct {
	PublicLink  string `json:"public_link" validate:"required,max=200"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
}

// UpdateProfileRequest is the JSON form of a profile edit. Omitted fields
// are left unchanged.
type UpdateProfileRequest struct {
	PublicLink  *string `json:"public_link" validate:"omitempty,max=200"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=300"`
}

type ThemeRequest struct {
	ThemeID         string `json:"theme_id" validate:"required,max=50"`
	BackgroundColor string `json:"background_color" validate:"max=32"`
	TextColor       string `json:"text_color" validate:"max=32"`
	ButtonColor     string `json:"button_color" validate:"max=32"`
	AvatarRadius    int    `json:"avatar_radius" validate:"min=0,max=100"`
	ButtonRadius    int    `json:"button_radius" validate:"min=0,max=100"`
}

// CheckPublicLink handles GET /api/v1/profile/check/{public_link}
func (h *ProfileHandler) CheckPublicLink(w http.ResponseWriter, r *http.Request) {
	link := chi.URLParam(r, "public_link")
	available, err := h.service.CheckPublicLink(r.Context(), link)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "", map[string]any{
		"public_link": strings.ToLower(strings.TrimSpace(link)),
		"available":   available,
	})
}

// GetPublicPage handles GET /api/v1/profile/{public_link}
func (h *ProfileHandler) GetPublicPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.GetPublicPage(r.Context(), chi.URLParam(r, "public_link"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "", page)
}

// Create handles POST /api/v1/profile
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	ident, err := identityFrom(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	profile, err := h.service.CreateProfile(r.Context(), ident.UserID, req.PublicLink, req.DisplayName)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, "Profile created", profile)
}

// Me handles GET /api/v1/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, err := identityFrom(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	profile, err := h.service.GetByUserID(r.Context(), ident.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "", profile)
}

// Update handles PATCH /api/v1/profile. It takes either JSON or a
// multipart form carrying an "avatar" image.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident, err := identityFrom(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var update ports.ProfileUpdate
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		cleanup, err := h.readMultipartUpdate(w, r, &update)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		defer cleanup()
	} else {
		var req UpdateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		update = ports.ProfileUpdate{PublicLink: req.PublicLink, DisplayName: req.DisplayName, Bio: req.Bio}
	}

	profile, err := h.service.UpdateProfile(r.Context(), ident.UserID, update)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Profile updated", profile)
}

func (h *ProfileHandler) readMultipartUpdate(w http.ResponseWriter, r *http.Request, update *ports.ProfileUpdate) (func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxAvatarBytes); err != nil {
		return nil, fmt.Errorf("%w: invalid multipart form", domain.ErrValidation)
	}
	form := r.MultipartForm
	cleanup := func() { _ = form.RemoveAll() }

	field := func(name string) *string {
		if vs, ok := form.Value[name]; ok && len(vs) > 0 {
			return &vs[0]
		}
		return nil
	}
	update.PublicLink = field("public_link")
	update.DisplayName = field("display_name")
	update.Bio = field("bio")

	file, header, err := r.FormFile("avatar")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return cleanup, nil
	case err != nil:
		cleanup()
		return nil, fmt.Errorf("%w: invalid avatar file", domain.ErrValidation)
	}

	contentType := header.Header.Get("Content-Type")
	if header.Size > h.maxAvatarBytes || !strings.HasPrefix(contentType, "image/") {
		file.Close()
		cleanup()
		return nil, fmt.Errorf("%w: avatar must be an image of at most %d bytes", domain.ErrValidation, h.maxAvatarBytes)
	}

	update.Avatar = &ports.AvatarUpload{Filename: header.Filename, ContentType: contentType, Data: file}
	return func() {
		file.Close()
		cleanup()
	}, nil
}

// UpdateTheme handles PATCH /api/v1/profile/theme
func (h *ProfileHandler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	ident, err := identityFrom(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	profile, err := h.service.UpdateTheme(r.Context(), ident.UserID, domain.Theme{
		ThemeID:         req.ThemeID,
		BackgroundColor: req.BackgroundColor,
		TextColor:       req.TextColor,
		ButtonColor:     req.ButtonColor,
		AvatarRadius:    req.AvatarRadius,
		ButtonRadius:    req.ButtonRadius,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Theme updated", profile)
}

// Delete handles DELETE /api/v1/profile
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, err := identityFrom(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), ident.UserID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	respondJSON(w, http.StatusOK, "Account deleted", nil)
}
