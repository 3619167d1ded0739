package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"goalmateAPI/internal/apperror"
	"goalmateAPI/middleware"
	"goalmateAPI/services"
)

// listResponse is the envelope every paginated read returns.
type listResponse struct {
	Data        any                 `json:"data"`
	MyCheeredID *string             `json:"my_cheered_id,omitempty"`
	Pagination  services.Pagination `json:"pagination"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps tagged business failures to their status
// code and payload; anything else is an infrastructure fault and surfaces
// as a plain 500.
func respondWithServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := apperror.As(err); ok {
		respondWithJSON(w, appErr.Code, appErr)
		return
	}
	log.Printf("Internal error: %v", err)
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}

func parsePagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = services.DefaultPageSize
	}
	return page, pageSize
}

func parseIDVar(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	return id, err == nil
}

// viewerPtr returns the authenticated viewer or nil for anonymous
// requests behind the optional-auth middleware.
func viewerPtr(r *http.Request) *uuid.UUID {
	if viewerID, ok := middleware.GetViewerID(r.Context()); ok {
		return &viewerID
	}
	return nil
}
