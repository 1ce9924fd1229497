package handlers

import (
	"net/http"

	"rootline/internal/service"
)

// MatchHandler handles DNA relative-match requests
type MatchHandler struct {
	matchService *service.MatchService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchService *service.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// GetAnalysis returns the caller's stored analysis document
func (h *MatchHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	analysis, err := h.matchService.GetAnalysis(r.Context(), userIDString(user.ID))
	if err != nil {
		respondWithServiceError(w, "Failed to load analysis", err)
		return
	}
	respondWithJSON(w, http.StatusOK, analysis)
}

// RefreshMatches reruns relative matching against the supplied
// candidate set and returns the merged result.
func (h *MatchHandler) RefreshMatches(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req struct {
		CandidateIDs []string `json:"candidateIds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	analysis, err := h.matchService.RefreshMatches(r.Context(), userIDString(user.ID), req.CandidateIDs)
	if err != nil {
		respondWithServiceError(w, "Failed to refresh matches", err)
		return
	}
	respondWithJSON(w, http.StatusOK, analysis)
}

// DeleteAnalysis removes the caller's analysis document
func (h *MatchHandler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	if err := h.matchService.DeleteAnalysis(r.Context(), userIDString(user.ID)); err != nil {
		respondWithServiceError(w, "Failed to delete analysis", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
