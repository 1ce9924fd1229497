package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"rootline/internal/security"
	"rootline/internal/service"
	"rootline/internal/validation"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService  *service.AuthService
	codeService  *service.CodeService
	emailService *service.EmailService
	mw           *Middleware

	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, codeService *service.CodeService, emailService *service.EmailService, mw *Middleware, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		codeService:          codeService,
		emailService:         emailService,
		mw:                   mw,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

type userResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
}

func userIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Register handles new account creation. An optional family code joins
// the new user to the code generator's tree as a viewer.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Name       string `json:"name"`
		FamilyCode string `json:"familyCode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	if errs := validation.ValidateRegistration(req.Email, req.Password, req.Name); len(errs) > 0 {
		respondWithJSON(w, http.StatusBadRequest, map[string]any{"validationErrors": errs})
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, service.ErrEmailTaken) {
			status = http.StatusInternalServerError
		}
		respondWithJSONError(w, status, err.Error(), "Registration failed", err)
		return
	}

	// Joining an existing family is best-effort; a bad code should not
	// undo a successful registration.
	if req.FamilyCode != "" {
		if _, err := h.codeService.RedeemCode(r.Context(), userIDString(user.ID), user.Email, req.FamilyCode); err != nil {
			log.Printf("Family code redemption failed for new user %d: %v", user.ID, err)
		}
	}

	session, _, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Post-registration login failed", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondWithJSON(w, http.StatusCreated, userResponse{
		ID:    userIDString(user.ID),
		Email: user.Email,
		Name:  user.Name,
	})
}

// Login handles credential sign-in
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithJSONError(w, http.StatusUnauthorized, "Invalid email or password", "", nil)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	respondWithJSON(w, http.StatusOK, userResponse{
		ID:      userIDString(user.ID),
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
	})
}

// Logout ends the current session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.authService.Logout(cookie.Value); err != nil {
			log.Printf("Failed to delete session: %v", err)
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated user along with a CSRF token for
// subsequent state-changing requests.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	csrfToken := ""
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		token, err := h.mw.GetCSRFToken(cookie.Value)
		if err != nil {
			respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to generate CSRF token", err)
			return
		}
		csrfToken = token
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"user": userResponse{
			ID:      userIDString(user.ID),
			Email:   user.Email,
			Name:    user.Name,
			IsAdmin: user.IsAdmin,
		},
		"csrfToken": csrfToken,
	})
}

// ForgotPassword starts the password reset flow. The response is the
// same whether or not the email has an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), h.emailService, req.Email); err != nil {
		log.Printf("Password reset request failed: %v", err)
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "If that email has an account, a reset link is on its way",
	})
}

// ResetPassword completes the password reset flow
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.NewPassword); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, "Invalid or expired reset token", "Password reset failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
