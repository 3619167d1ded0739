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

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewerID, ok := middleware.GetViewerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var input services.CreateCommentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.GoalID == uuid.Nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.commentService.Create(ctx, viewerID, input)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewerID, ok := middleware.GetViewerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	commentID, ok := parseIDVar(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid comment id")
		return
	}

	var body struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.commentService.Update(ctx, commentID, viewerID, body.Comment)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	viewerID, ok := middleware.GetViewerID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	commentID, ok := parseIDVar(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid comment id")
		return
	}

	if err := h.commentService.Delete(ctx, commentID, viewerID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"deleted": commentID.String()})
}

func (h *CommentHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	goalID, err := uuid.Parse(r.URL.Query().Get("goal_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'goal_id' is required")
		return
	}

	page, pageSize := parsePagination(r)
	views, pagination, err := h.commentService.RetrieveAll(ctx, goalID, page, pageSize)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{Data: views, Pagination: pagination})
}
