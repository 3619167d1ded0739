package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"goalmateAPI/internal/store"
	"goalmateAPI/middleware"
	"goalmateAPI/services"
)

type SupportHandler struct {
	supportService *services.SupportService
}

func NewSupportHandler(supportService *services.SupportService) *SupportHandler {
	return &SupportHandler{supportService: supportService}
}

func (h *SupportHandler) CreateSupport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewerID, ok := middleware.GetViewerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body struct {
		SupportingID uuid.UUID `json:"supporting_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SupportingID == uuid.Nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sup, err := h.supportService.Create(ctx, viewerID, body.SupportingID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, sup)
}

func (h *SupportHandler) DeleteSupport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewerID, ok := middleware.GetViewerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	supportID, ok := parseIDVar(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid support id")
		return
	}

	if err := h.supportService.Delete(ctx, supportID, viewerID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"deleted": supportID.String()})
}

func (h *SupportHandler) GetSupport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	supportID, ok := parseIDVar(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid support id")
		return
	}

	sup, err := h.supportService.Retrieve(ctx, supportID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sup)
}

func (h *SupportHandler) GetSupports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var f store.SupportFilter
	if raw := r.URL.Query().Get("supporter_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			f.SupporterID = &id
		}
	}
	if raw := r.URL.Query().Get("supporting_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			f.SupportingID = &id
		}
	}

	page, pageSize := parsePagination(r)
	views, pagination, err := h.supportService.RetrieveAll(ctx, f, page, pageSize)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{Data: views, Pagination: pagination})
}
