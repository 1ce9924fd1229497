package handlers

import (
	"log"
	"net/http"

	"rootline/internal/models"
	"rootline/internal/service"
)

// ShareHandler handles tree sharing requests
type ShareHandler struct {
	shareService *service.ShareService
	emailService *service.EmailService
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService *service.ShareService, emailService *service.EmailService) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		emailService: emailService,
	}
}

// List returns the grants the caller has issued for their own tree
func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	shares, err := h.shareService.ListShares(r.Context(), userIDString(user.ID))
	if err != nil {
		respondWithServiceError(w, "Failed to list shares", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"shares": shares})
}

// ListSharedWithMe returns the grants other owners have issued to the caller
func (h *ShareHandler) ListSharedWithMe(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	shares, err := h.shareService.ListSharedWithUser(r.Context(), userIDString(user.ID))
	if err != nil {
		respondWithServiceError(w, "Failed to list shared trees", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"shares": shares})
}

// Grant creates or replaces a share of the caller's tree
func (h *ShareHandler) Grant(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req struct {
		TargetUserID string `json:"targetUserId"`
		TargetEmail  string `json:"targetEmail"`
		Role         string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	grant, err := h.shareService.GrantShare(r.Context(), userIDString(user.ID), req.TargetUserID, req.TargetEmail, models.ShareRole(req.Role))
	if err != nil {
		respondWithServiceError(w, "Failed to grant share", err)
		return
	}

	// Notification is best-effort; the grant already exists.
	if grant.TargetEmail != "" && h.emailService.IsEnabled() {
		if err := h.emailService.SendShareInviteEmail(r.Context(), grant.TargetEmail, "", user.Name, string(grant.Role)); err != nil {
			log.Printf("Failed to send share invite email: %v", err)
		}
	}

	respondWithJSON(w, http.StatusCreated, grant)
}

// UpdateRole changes the role on an existing grant
func (h *ShareHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	grant, err := h.shareService.UpdateShareRole(r.Context(), userIDString(user.ID), r.PathValue("shareId"), models.ShareRole(req.Role))
	if err != nil {
		respondWithServiceError(w, "Failed to update share role", err)
		return
	}
	respondWithJSON(w, http.StatusOK, grant)
}

// Revoke removes a grant from the caller's tree
func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	if err := h.shareService.RevokeShare(r.Context(), userIDString(user.ID), r.PathValue("shareId")); err != nil {
		respondWithServiceError(w, "Failed to revoke share", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
