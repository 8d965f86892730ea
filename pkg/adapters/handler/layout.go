package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

type LayoutHandler struct {
	service ports.LayoutService
	owners  ownerResolver
	logger  *zap.Logger
}

func NewLayoutHandler(service ports.LayoutService, profiles ports.ProfileService, logger *zap.Logger) *LayoutHandler {
	return &LayoutHandler{service: service, owners: ownerResolver{profiles: profiles}, logger: logger}
}

type UpdateBlockRequest struct {
	Visible   *bool             `json:"visible"`
	Alignment *domain.Alignment `json:"alignment" validate:"omitempty,oneof=left center right"`
}

// List handles GET /api/v1/layout
func (h *LayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, err := h.owners.ownerID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	blocks, err := h.service.ListLayout(r.Context(), ownerID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "", blocks)
}

// Reorder handles POST /api/v1/layout/reorder
func (h *LayoutHandler) Reorder(w http.ResponseWriter, r *http.Request) {
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

	blocks, err := h.service.ReorderLayout(r.Context(), ownerID, req.IDs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Layout reordered", blocks)
}

// UpdateBlock handles PATCH /api/v1/layout/{id}
func (h *LayoutHandler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	var req UpdateBlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	ownerID, err := h.owners.ownerID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	block, err := h.service.UpdateBlock(r.Context(), ownerID, chi.URLParam(r, "id"), req.Visible, req.Alignment)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Block updated", block)
}
