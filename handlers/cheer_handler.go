package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"goalmateAPI/middleware"
	"goalmateAPI/services"
)

type CheerHandler struct {
	cheerService *services.CheerService
}

func NewCheerHandler(cheerService *services.CheerService) *CheerHandler {
	return &CheerHandler{cheerService: cheerService}
}

func (h *CheerHandler) CreateCheer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewerID, ok := middleware.GetViewerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body struct {
		GoalID uuid.UUID `json:"goal_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.GoalID == uuid.Nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.cheerService.Create(ctx, body.GoalID, viewerID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *CheerHandler) DeleteCheer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewerID, ok := middleware.GetViewerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	cheerID, ok := parseIDVar(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid cheer id")
		return
	}

	if err := h.cheerService.Delete(ctx, cheerID, viewerID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"deleted": cheerID.String()})
}

func (h *CheerHandler) GetCheers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	goalID, err := uuid.Parse(r.URL.Query().Get("goal_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'goal_id' is required")
		return
	}

	page, pageSize := parsePagination(r)
	views, myCheeredID, pagination, err := h.cheerService.RetrieveAll(ctx, goalID, viewerPtr(r), page, pageSize)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{
		Data:        views,
		MyCheeredID: &myCheeredID,
		Pagination:  pagination,
	})
}
