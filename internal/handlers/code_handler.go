package handlers

import (
	"log"
	"net/http"

	"rootline/internal/familycode"
	"rootline/internal/service"
)

// CodeHandler handles family code requests
type CodeHandler struct {
	codeService  *service.CodeService
	emailService *service.EmailService
}

// NewCodeHandler creates a new family code handler
func NewCodeHandler(codeService *service.CodeService, emailService *service.EmailService) *CodeHandler {
	return &CodeHandler{
		codeService:  codeService,
		emailService: emailService,
	}
}

// Generate creates a fresh join code for the caller's tree. When an
// invite email is supplied the code is mailed to it as well.
func (h *CodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req struct {
		FamilyName  string `json:"familyName"`
		InviteEmail string `json:"inviteEmail"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	code, err := h.codeService.GenerateCode(r.Context(), userIDString(user.ID), req.FamilyName)
	if err != nil {
		respondWithServiceError(w, "Failed to generate family code", err)
		return
	}

	if req.InviteEmail != "" && h.emailService.IsEnabled() {
		if err := h.emailService.SendFamilyCodeEmail(r.Context(), req.InviteEmail, user.Name, code.FamilyName, code.Code); err != nil {
			log.Printf("Failed to send family code email: %v", err)
		}
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{
		"code":    code,
		"display": familycode.FormatCode(code.Code),
	})
}

// List returns the codes the caller has generated
func (h *CodeHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	codes, err := h.codeService.ListCodes(r.Context(), userIDString(user.ID))
	if err != nil {
		respondWithServiceError(w, "Failed to list family codes", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"codes": codes})
}

// Deactivate retires a code before its expiry
func (h *CodeHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	if err := h.codeService.Deactivate(r.Context(), userIDString(user.ID), r.PathValue("code")); err != nil {
		respondWithServiceError(w, "Failed to deactivate family code", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// Redeem joins the caller to the code generator's tree as a viewer
func (h *CodeHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	grant, err := h.codeService.RedeemCode(r.Context(), userIDString(user.ID), user.Email, req.Code)
	if err != nil {
		respondWithServiceError(w, "Failed to redeem family code", err)
		return
	}
	respondWithJSON(w, http.StatusOK, grant)
}
