package handler

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

type LinkHandler struct {
	service ports.LinkService
	owners  ownerResolver
	logger  *zap.Logger
}

func NewLinkHandler(service ports.LinkService, profiles ports.ProfileService, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{service: service, owners: ownerResolver{profiles: profiles}, logger: logger}
}

// LinkRequest is the body of link create and update calls.
type LinkRequest struct {
	Title string `json:"title" validate:"required,min=3,max=100"`
	URL   string `json:"url" validate:"required,min=6,max=300,url"`
}

// ReorderRequest lists item ids in their new order. Ids left out keep
// their relative order after the listed ones.
type ReorderRequest struct {
	IDs []string `json:"ids"`
}

// List handles GET /api/v1/links
func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, err := h.owners.ownerID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	links, err := h.service.ListLinks(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "", links)
}

// Create handles POST /api/v1/links
func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	ownerID, err := h.owners.ownerID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	link, err := h.service.CreateLink(r.Context(), ownerID, req.Title, req.URL)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, "Link created", link)
}

// Update handles PATCH /api/v1/links/{id}
func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	ownerID, err := h.owners.ownerID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	link, err := h.service.UpdateLink(r.Context(), ownerID, chi.URLParam(r, "id"), req.Title, req.URL)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Link updated", link)
}

// Delete handles DELETE /api/v1/links/{id}. Remaining links keep their
// positions.
func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, err := h.owners.ownerID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteLink(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Link deleted", nil)
}

// Reorder handles POST /api/v1/links/reorder
func (h *LinkHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	ownerID, err := h.owners.ownerID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	links, err := h.service.ReorderLinks(r.Context(), ownerID, req.IDs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Links reordered", links)
}

// RecordClick handles POST /api/v1/links/{id}/click from public pages.
func (h *LinkHandler) RecordClick(w http.ResponseWriter, r *http.Request) {
	err := h.service.RecordClick(r.Context(), chi.URLParam(r, "id"), r.Referer(), r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Click recorded", nil)
}

// clientIP strips the port from RemoteAddr, which RealIP has already
// replaced with the forwarded address when there is one.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
