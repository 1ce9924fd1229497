package handlers

import (
	"net/http"

	"rootline/internal/models"
	"rootline/internal/service"
)

// SubfamilyHandler handles subfamily grouping requests. Subfamilies
// ride inside the tree aggregate, so access resolution mirrors the
// tree handler's.
type SubfamilyHandler struct {
	treeService  *service.TreeService
	shareService *service.ShareService
}

// NewSubfamilyHandler creates a new subfamily handler
func NewSubfamilyHandler(treeService *service.TreeService, shareService *service.ShareService) *SubfamilyHandler {
	return &SubfamilyHandler{
		treeService:  treeService,
		shareService: shareService,
	}
}

// List returns all subfamilies of the addressed tree
func (h *SubfamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := resolveTreeOwner(w, r, h.shareService, false)
	if !ok {
		return
	}

	subfamilies, err := h.treeService.ListSubfamilies(r.Context(), ownerID)
	if err != nil {
		respondWithServiceError(w, "Failed to list subfamilies", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"subfamilies": subfamilies})
}

// Create adds a new subfamily grouping
func (h *SubfamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := resolveTreeOwner(w, r, h.shareService, true)
	if !ok {
		return
	}

	var subfamily models.Subfamily
	if err := decodeJSON(r, &subfamily); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	created, err := h.treeService.CreateSubfamily(r.Context(), ownerID, subfamily)
	if err != nil {
		respondWithServiceError(w, "Failed to create subfamily", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// Update replaces a subfamily's details and membership
func (h *SubfamilyHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := resolveTreeOwner(w, r, h.shareService, true)
	if !ok {
		return
	}

	var subfamily models.Subfamily
	if err := decodeJSON(r, &subfamily); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	subfamily.ID = r.PathValue("subfamilyId")

	updated, err := h.treeService.UpdateSubfamily(r.Context(), ownerID, subfamily)
	if err != nil {
		respondWithServiceError(w, "Failed to update subfamily", err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// Delete removes a subfamily grouping. Members stay in the tree.
func (h *SubfamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := resolveTreeOwner(w, r, h.shareService, true)
	if !ok {
		return
	}

	if err := h.treeService.DeleteSubfamily(r.Context(), ownerID, r.PathValue("subfamilyId")); err != nil {
		respondWithServiceError(w, "Failed to delete subfamily", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
