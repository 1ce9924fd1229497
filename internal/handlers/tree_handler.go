package handlers

import (
	"net/http"

	"rootline/internal/graph"
	"rootline/internal/models"
	"rootline/internal/service"
)

// TreeHandler handles family tree HTTP requests. A request operates on
// the caller's own tree unless the "owner" query parameter names
// another user's tree, in which case the caller needs a share grant.
type TreeHandler struct {
	treeService  *service.TreeService
	shareService *service.ShareService
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(treeService *service.TreeService, shareService *service.ShareService) *TreeHandler {
	return &TreeHandler{
		treeService:  treeService,
		shareService: shareService,
	}
}

// resolveTreeOwner determines the tree a request addresses and checks
// the caller's access to it. It writes the error response itself when
// access is denied.
func resolveTreeOwner(w http.ResponseWriter, r *http.Request, shares *service.ShareService, needEdit bool) (string, bool) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return "", false
	}

	selfID := userIDString(user.ID)
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" || ownerID == selfID {
		return selfID, true
	}

	access, err := shares.ResolveAccess(r.Context(), ownerID, selfID)
	if err != nil {
		respondWithServiceError(w, "Failed to resolve tree access", err)
		return "", false
	}
	if !access.CanView || (needEdit && !access.CanEdit) {
		respondWithJSONError(w, http.StatusForbidden, "You do not have access to this tree", "", nil)
		return "", false
	}
	return ownerID, true
}

// GetTree returns the addressed tree, synthesizing an empty one for
// owners who have never saved.
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := resolveTreeOwner(w, r, h.shareService, false)
	if !ok {
		return
	}

	tree, err := h.treeService.LoadTree(r.Context(), ownerID)
	if err != nil {
		respondWithServiceError(w, "Failed to load tree", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tree)
}

// SaveTree replaces the whole aggregate in one write
func (h *TreeHandler) SaveTree(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := resolveTreeOwner(w, r, h.shareService, true)
	if !ok {
		return
	}

	var tree models.FamilyTree
	if err := decodeJSON(r, &tree); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	saved, err := h.treeService.SaveTree(r.Context(), ownerID, &tree)
	if err != nil {
		respondWithServiceError(w, "Failed to save tree", err)
		return
	}
	respondWithJSON(w, http.StatusOK, saved)
}

// DeleteTree removes the caller's own tree along with its shares and
// family codes. Shared access never allows deletion.
func (h *TreeHandler) DeleteTree(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithJSONError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	if err := h.treeService.DeleteTree(r.Context(), userIDString(user.ID)); err != nil {
		respondWithServiceError(w, "Failed to delete tree", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetWarnings reports advisory consistency findings for the tree
func (h *TreeHandler) GetWarnings(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := resolveTreeOwner(w, r, h.shareService, false)
	if !ok {
		return
	}

	tree, err := h.treeService.LoadTree(r.Context(), ownerID)
	if err != nil {
		respondWithServiceError(w, "Failed to load tree", err)
		return
	}

	warnings := graph.TreeWarnings(tree)
	if warnings == nil {
		warnings = []string{}
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"warnings": warnings})
}

// AddMember adds one person to the tree
func (h *TreeHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := resolveTreeOwner(w, r, h.shareService, true)
	if !ok {
		return
	}

	var member models.FamilyMember
	if err := decodeJSON(r, &member); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	tree, err := h.treeService.AddMember(r.Context(), ownerID, member)
	if err != nil {
		respondWithServiceError(w, "Failed to add member", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, tree)
}

// UpdateMember replaces one person's details
func (h *TreeHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := resolveTreeOwner(w, r, h.shareService, true)
	if !ok {
		return
	}

	var member models.FamilyMember
	if err := decodeJSON(r, &member); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	member.ID = r.PathValue("memberId")

	tree, err := h.treeService.UpdateMember(r.Context(), ownerID, member)
	if err != nil {
		respondWithServiceError(w, "Failed to update member", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tree)
}

// RemoveMember deletes a person and every edge touching them
func (h *TreeHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := resolveTreeOwner(w, r, h.shareService, true)
	if !ok {
		return
	}

	tree, err := h.treeService.RemoveMember(r.Context(), ownerID, r.PathValue("memberId"))
	if err != nil {
		respondWithServiceError(w, "Failed to remove member", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tree)
}

// AddEdge adds one relationship between two existing members
func (h *TreeHandler) AddEdge(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := resolveTreeOwner(w, r, h.shareService, true)
	if !ok {
		return
	}

	var edge models.FamilyEdge
	if err := decodeJSON(r, &edge); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	tree, err := h.treeService.AddEdge(r.Context(), ownerID, edge)
	if err != nil {
		respondWithServiceError(w, "Failed to add edge", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, tree)
}

// RemoveEdge deletes one relationship
func (h *TreeHandler) RemoveEdge(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := resolveTreeOwner(w, r, h.shareService, true)
	if !ok {
		return
	}

	tree, err := h.treeService.RemoveEdge(r.Context(), ownerID, r.PathValue("edgeId"))
	if err != nil {
		respondWithServiceError(w, "Failed to remove edge", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tree)
}
