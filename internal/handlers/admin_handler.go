package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rootline/internal/repository"
	"rootline/internal/service"
)

// AdminHandler handles administrative requests. All routes are behind
// RequireAdmin, so the user in context is always an admin.
type AdminHandler struct {
	backupService *service.BackupService
	userRepo      *repository.UserRepository
	treeService   *service.TreeService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(backupService *service.BackupService, userRepo *repository.UserRepository, treeService *service.TreeService) *AdminHandler {
	return &AdminHandler{
		backupService: backupService,
		userRepo:      userRepo,
		treeService:   treeService,
	}
}

type adminUserResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	IsAdmin       bool      `json:"isAdmin"`
	OAuthProvider string    `json:"oauthProvider,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ListUsers returns every registered account
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.GetAllUsers()
	if err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to list users", err)
		return
	}

	resp := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, adminUserResponse{
			ID:            userIDString(u.ID),
			Email:         u.Email,
			Name:          u.Name,
			IsAdmin:       u.IsAdmin,
			OAuthProvider: u.OAuthProvider,
			CreatedAt:     u.CreatedAt,
		})
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"users": resp})
}

// UpdateUser changes an account's email, name, or admin flag. An admin
// cannot remove their own admin flag; that would lock everyone out of
// single-admin installs.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	admin := GetUserFromContext(r.Context())

	userID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		respondWithJSONError(w, http.StatusBadRequest, "Invalid user id", "", err)
		return
	}

	var req struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		IsAdmin bool   `json:"isAdmin"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	target, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load user", err)
		return
	}
	if target == nil {
		respondWithJSONError(w, http.StatusNotFound, "User not found", "", nil)
		return
	}

	if userID == admin.ID && !req.IsAdmin {
		respondWithJSONError(w, http.StatusBadRequest, "You cannot remove your own admin access", "", nil)
		return
	}

	if req.Email == "" {
		req.Email = target.Email
	}
	if req.Name == "" {
		req.Name = target.Name
	}

	if err := h.userRepo.UpdateUser(userID, req.Email, req.Name, req.IsAdmin); err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to update user", err)
		return
	}

	log.Printf("Admin %s updated user %d", admin.Email, userID)
	respondWithJSON(w, http.StatusOK, adminUserResponse{
		ID:            userIDString(userID),
		Email:         req.Email,
		Name:          req.Name,
		IsAdmin:       req.IsAdmin,
		OAuthProvider: target.OAuthProvider,
		CreatedAt:     target.CreatedAt,
	})
}

// DeleteUser removes an account along with its sessions, reset tokens,
// tree, and everything hanging off the tree. Admins cannot delete
// themselves.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin := GetUserFromContext(r.Context())

	userID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		respondWithJSONError(w, http.StatusBadRequest, "Invalid user id", "", err)
		return
	}
	if userID == admin.ID {
		respondWithJSONError(w, http.StatusBadRequest, "You cannot delete your own account", "", nil)
		return
	}

	target, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to load user", err)
		return
	}
	if target == nil {
		respondWithJSONError(w, http.StatusNotFound, "User not found", "", nil)
		return
	}

	if err := h.treeService.DeleteTree(r.Context(), userIDString(userID)); err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to delete user's tree", err)
		return
	}
	if err := h.userRepo.DeleteUserSessions(userID); err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to delete user sessions", err)
		return
	}
	if err := h.userRepo.DeleteUserPasswordResetTokens(userID); err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to delete user reset tokens", err)
		return
	}
	if err := h.userRepo.DeleteUser(userID); err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to delete user", err)
		return
	}

	log.Printf("Admin %s deleted user %d (%s)", admin.Email, userID, target.Email)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// DatabaseStats holds database statistics
type DatabaseStats struct {
	Users       int            `json:"users"`
	Sessions    int            `json:"sessions"`
	Documents   int            `json:"documents"`
	Collections map[string]int `json:"collections"`
}

// Stats reports row counts across the database
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.getDatabaseStats()
	if err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to gather database stats", err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// ExportDatabase streams a full backup as a JSON download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("rootline_backup_%s.json", timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.backupService.ExportToWriter(w); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to export database", "Error exporting database", err)
		return
	}

	log.Printf("Database exported by admin user %s", user.Email)
}

// ImportDatabase restores a backup from an uploaded file
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	// 10MB upload cap
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, "Failed to parse form", "", err)
		return
	}

	file, _, err := r.FormFile("backup_file")
	if err != nil {
		respondWithJSONError(w, http.StatusBadRequest, "Please select a backup file", "", err)
		return
	}
	defer file.Close()

	clearData := r.FormValue("clear_data") == "true"
	if clearData {
		log.Printf("Admin %s requested database clear before import", user.Email)
		if err := h.clearDatabase(); err != nil {
			respondWithJSONError(w, http.StatusInternalServerError, "Failed to clear database", "Error clearing database", err)
			return
		}
	}

	if err := h.backupService.ImportFromReader(file); err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, "Failed to import database", "Error importing database", err)
		return
	}

	log.Printf("Database imported successfully by admin user %s (clear_data=%v)", user.Email, clearData)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (h *AdminHandler) getDatabaseStats() (*DatabaseStats, error) {
	stats := &DatabaseStats{Collections: map[string]int{}}
	db := h.backupService.GetDB()

	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&stats.Users); err != nil {
		return nil, err
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&stats.Sessions); err != nil {
		return nil, err
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&stats.Documents); err != nil {
		return nil, err
	}

	rows, err := db.Query("SELECT collection, COUNT(*) FROM documents GROUP BY collection")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var collection string
		var count int
		if err := rows.Scan(&collection, &count); err != nil {
			return nil, err
		}
		stats.Collections[collection] = count
	}

	return stats, rows.Err()
}

func (h *AdminHandler) clearDatabase() error {
	db := h.backupService.GetDB()

	// Delete in reverse order of dependencies
	tables := []string{
		"documents",
		"password_reset_tokens",
		"sessions",
		"users",
	}

	for _, table := range tables {
		query := fmt.Sprintf("DELETE FROM %s", table)
		if _, err := db.Exec(query); err != nil {
			// Ignore missing-table errors so older databases still import
			if !strings.Contains(err.Error(), "no such table") &&
				!strings.Contains(err.Error(), "doesn't exist") &&
				!strings.Contains(err.Error(), "does not exist") {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
		}
	}

	return nil
}
