package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"goalmateAPI/internal/types/goal"
	"goalmateAPI/middleware"
	"goalmateAPI/services"
)

type GoalHandler struct {
	goalService *services.GoalService
}

func NewGoalHandler(goalService *services.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewerID, ok := middleware.GetViewerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var input services.CreateGoalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, err := h.goalService.Create(ctx, viewerID, input)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, g)
}

func goalFilterFromQuery(r *http.Request) goal.Filter {
	var f goal.Filter
	if raw := r.URL.Query().Get("created_by_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			f.CreatedByID = &id
		}
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := goal.Status(raw)
		f.Status = &status
	}
	return f
}

func (h *GoalHandler) GetGoals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewer := viewerPtr(r)
	page, pageSize := parsePagination(r)
	f := goalFilterFromQuery(r)

	if r.URL.Query().Get("supporting") == "true" {
		if viewer == nil {
			respondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}
		views, pagination, err := h.goalService.RetrieveSupporting(ctx, *viewer, f, page, pageSize)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, listResponse{Data: views, Pagination: pagination})
		return
	}

	views, pagination, err := h.goalService.RetrieveAll(ctx, f, viewer, page, pageSize)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{Data: views, Pagination: pagination})
}

func (h *GoalHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	goalID, ok := parseIDVar(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid goal id")
		return
	}

	view, err := h.goalService.Retrieve(ctx, goalID, viewerPtr(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *GoalHandler) GetProgressFeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, pageSize := parsePagination(r)
	rows, pagination, err := h.goalService.RetrieveAllProgress(ctx, goalFilterFromQuery(r), viewerPtr(r), page, pageSize)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{Data: rows, Pagination: pagination})
}

func (h *GoalHandler) UpdateGoalStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewerID, ok := middleware.GetViewerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	goalID, ok := parseIDVar(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid goal id")
		return
	}

	var body struct {
		Status goal.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.goalService.UpdateStatus(ctx, goalID, viewerID, body.Status); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(body.Status)})
}

func (h *GoalHandler) AddProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewerID, ok := middleware.GetViewerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	goalID, ok := parseIDVar(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid goal id")
		return
	}

	var input services.AppendProgressInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.goalService.AppendProgress(ctx, goalID, viewerID, input)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, entry)
}

func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewerID, ok := middleware.GetViewerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	goalID, ok := parseIDVar(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid goal id")
		return
	}

	if err := h.goalService.Delete(ctx, goalID, viewerID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"deleted": goalID.String()})
}
