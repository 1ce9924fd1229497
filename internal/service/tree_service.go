package service

import (
	"context"
	"errors"
	"fmt"
	"rootline/internal/docstore"
	"rootline/internal/graph"
	"rootline/internal/models"
	"time"

	"github.com/google/uuid"
)

const collectionTrees = "familyTrees"

var (
	ErrMalformedTree     = errors.New("malformed tree payload")
	ErrValidationFailed  = errors.New("validation failed")
	ErrMemberNotFound    = errors.New("member not found")
	ErrEdgeNotFound      = errors.New("edge not found")
	ErrSubfamilyNotFound = errors.New("subfamily not found")
)

// TreeService owns the family tree aggregate: load, mutate, validate,
// version, persist. Every call re-fetches the document; nothing is cached
// between requests. Two concurrent saves race and the later write wins
// wholesale.
type TreeService struct {
	store docstore.Store
}

// NewTreeService creates a new tree service
func NewTreeService(store docstore.Store) *TreeService {
	return &TreeService{store: store}
}

// LoadTree retrieves a user's tree. A user who has never saved gets a fresh
// empty skeleton; absence is never an error.
func (s *TreeService) LoadTree(ctx context.Context, ownerID string) (*models.FamilyTree, error) {
	tree := &models.FamilyTree{}
	err := s.store.Get(ctx, collectionTrees, ownerID, tree)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.NewFamilyTree(ownerID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}
	return tree, nil
}

// SaveTree persists the whole aggregate for ownerID. The incoming id and
// ownerId are overwritten, the version counter advances off the aggregate
// the caller passed in, and a history entry summarizing the member count is
// appended. The previous document is replaced entirely, so of two racing
// saves the later one wins wholesale, version bump included.
func (s *TreeService) SaveTree(ctx context.Context, ownerID string, tree *models.FamilyTree) (*models.FamilyTree, error) {
	if tree == nil || tree.Members == nil || tree.Edges == nil {
		return nil, fmt.Errorf("%w: members and edges must be present", ErrMalformedTree)
	}

	now := time.Now().UTC()
	tree.ID = ownerID
	tree.OwnerID = ownerID
	if tree.CreatedAt.IsZero() {
		tree.CreatedAt = now
	}
	tree.UpdatedAt = now

	tree.Version.Current++
	entry := models.VersionEntry{
		ID:        uuid.New().String(),
		Timestamp: now,
		Summary:   fmt.Sprintf("Updated tree with %d members", len(tree.Members)),
	}
	history := append(tree.Version.History, entry)
	if len(history) > models.VersionHistoryLimit {
		history = history[len(history)-models.VersionHistoryLimit:]
	}
	tree.Version.History = history

	if err := s.store.Set(ctx, collectionTrees, ownerID, tree, false); err != nil {
		return nil, fmt.Errorf("failed to save tree: %w", err)
	}

	return tree, nil
}

// DeleteTree removes a user's tree along with the share grants and family
// codes that hang off it. Deleting an absent tree is not an error.
func (s *TreeService) DeleteTree(ctx context.Context, ownerID string) error {
	if err := s.store.Delete(ctx, collectionTrees, ownerID); err != nil {
		return fmt.Errorf("failed to delete tree: %w", err)
	}

	// Cascade to share grants
	shareRaws, err := s.store.Query(ctx, collectionShares, []docstore.Filter{{Field: "ownerId", Value: ownerID}}, "", 0)
	if err != nil {
		return fmt.Errorf("failed to query shares for cascade: %w", err)
	}
	shares, err := docstore.DecodeAll[models.ShareGrant](shareRaws)
	if err != nil {
		return fmt.Errorf("failed to decode shares for cascade: %w", err)
	}
	if len(shares) > 0 {
		ids := make([]string, len(shares))
		for i, share := range shares {
			ids[i] = share.ID
		}
		if err := s.store.DeleteMany(ctx, collectionShares, ids); err != nil {
			return fmt.Errorf("failed to cascade share deletion: %w", err)
		}
	}

	// Cascade to family codes
	codeRaws, err := s.store.Query(ctx, collectionCodes, []docstore.Filter{{Field: "generatedBy", Value: ownerID}}, "", 0)
	if err != nil {
		return fmt.Errorf("failed to query codes for cascade: %w", err)
	}
	codes, err := docstore.DecodeAll[models.FamilyCode](codeRaws)
	if err != nil {
		return fmt.Errorf("failed to decode codes for cascade: %w", err)
	}
	if len(codes) > 0 {
		ids := make([]string, len(codes))
		for i, code := range codes {
			ids[i] = code.Code
		}
		if err := s.store.DeleteMany(ctx, collectionCodes, ids); err != nil {
			return fmt.Errorf("failed to cascade code deletion: %w", err)
		}
	}

	return nil
}

// AddMember appends a member to the tree after checking its dates. An empty
// ID gets a fresh UUID.
func (s *TreeService) AddMember(ctx context.Context, ownerID string, member models.FamilyMember) (*models.FamilyTree, error) {
	if result := graph.ValidateDates(member.BirthDate, member.DeathDate); !result.IsValid {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, result.Message)
	}

	tree, err := s.LoadTree(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	member.CreatedAt = now
	member.UpdatedAt = now

	tree.Members = append(tree.Members, member)
	return s.SaveTree(ctx, ownerID, tree)
}

// UpdateMember replaces an existing member in place, keeping its creation
// timestamp. Date rules apply the same as on add.
func (s *TreeService) UpdateMember(ctx context.Context, ownerID string, member models.FamilyMember) (*models.FamilyTree, error) {
	if result := graph.ValidateDates(member.BirthDate, member.DeathDate); !result.IsValid {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, result.Message)
	}

	tree, err := s.LoadTree(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	existing := tree.FindMember(member.ID)
	if existing == nil {
		return nil, ErrMemberNotFound
	}

	member.CreatedAt = existing.CreatedAt
	member.UpdatedAt = time.Now().UTC()
	*existing = member

	return s.SaveTree(ctx, ownerID, tree)
}

// RemoveMember deletes a member and cleans up every edge that referenced it.
func (s *TreeService) RemoveMember(ctx context.Context, ownerID, memberID string) (*models.FamilyTree, error) {
	tree, err := s.LoadTree(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if tree.FindMember(memberID) == nil {
		return nil, ErrMemberNotFound
	}

	remaining := make([]models.FamilyMember, 0, len(tree.Members)-1)
	for _, m := range tree.Members {
		if m.ID != memberID {
			remaining = append(remaining, m)
		}
	}
	tree.Members = remaining

	cleanup := graph.CleanupOrphanedEdges(tree.Members, tree.Edges)
	tree.Edges = cleanup.CleanedEdges

	return s.SaveTree(ctx, ownerID, tree)
}

// AddEdge validates and appends a relationship edge.
func (s *TreeService) AddEdge(ctx context.Context, ownerID string, edge models.FamilyEdge) (*models.FamilyTree, error) {
	if !models.IsValidEdgeType(edge.Type) {
		return nil, fmt.Errorf("%w: unknown relationship type %q", ErrValidationFailed, edge.Type)
	}

	tree, err := s.LoadTree(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if result := graph.ValidateEdge(edge, tree.Members); !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, result.Message)
	}

	now := time.Now().UTC()
	if edge.ID == "" {
		edge.ID = uuid.New().String()
	}
	edge.CreatedAt = now
	edge.UpdatedAt = now

	tree.Edges = append(tree.Edges, edge)
	return s.SaveTree(ctx, ownerID, tree)
}

// RemoveEdge deletes an edge by ID.
func (s *TreeService) RemoveEdge(ctx context.Context, ownerID, edgeID string) (*models.FamilyTree, error) {
	tree, err := s.LoadTree(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	found := false
	remaining := make([]models.FamilyEdge, 0, len(tree.Edges))
	for _, e := range tree.Edges {
		if e.ID == edgeID {
			found = true
			continue
		}
		remaining = append(remaining, e)
	}
	if !found {
		return nil, ErrEdgeNotFound
	}
	tree.Edges = remaining

	return s.SaveTree(ctx, ownerID, tree)
}

// ListSubfamilies returns the subfamilies of a user's tree, empty when the
// tree has never been saved.
func (s *TreeService) ListSubfamilies(ctx context.Context, ownerID string) ([]models.Subfamily, error) {
	tree, err := s.LoadTree(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if tree.Subfamilies == nil {
		return []models.Subfamily{}, nil
	}
	return tree.Subfamilies, nil
}

// CreateSubfamily adds a named grouping to the tree. Member references are
// not checked against the tree; groupings are presentational overlays.
// Subfamily writes stamp the tree's updatedAt but do not advance the
// version counter.
func (s *TreeService) CreateSubfamily(ctx context.Context, ownerID string, subfamily models.Subfamily) (*models.Subfamily, error) {
	if subfamily.Name == "" {
		return nil, fmt.Errorf("%w: subfamily name is required", ErrValidationFailed)
	}

	tree, err := s.LoadTree(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if subfamily.ID == "" {
		subfamily.ID = uuid.New().String()
	}
	if subfamily.MemberIDs == nil {
		subfamily.MemberIDs = []string{}
	}
	subfamily.ParentFamilyID = ownerID
	subfamily.CreatedAt = now
	subfamily.UpdatedAt = now

	tree.Subfamilies = append(tree.Subfamilies, subfamily)
	if err := s.writeTreeUnversioned(ctx, ownerID, tree); err != nil {
		return nil, err
	}

	return &subfamily, nil
}

// UpdateSubfamily merges a partial update into an existing subfamily.
// Absent fields keep their stored values, so sending only a description
// leaves the name and membership untouched.
func (s *TreeService) UpdateSubfamily(ctx context.Context, ownerID string, subfamily models.Subfamily) (*models.Subfamily, error) {
	tree, err := s.LoadTree(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	existing := tree.FindSubfamily(subfamily.ID)
	if existing == nil {
		return nil, ErrSubfamilyNotFound
	}

	if subfamily.Name == "" {
		subfamily.Name = existing.Name
	}
	if subfamily.Description == "" {
		subfamily.Description = existing.Description
	}
	if subfamily.HeadMemberID == "" {
		subfamily.HeadMemberID = existing.HeadMemberID
	}
	if subfamily.MemberIDs == nil {
		subfamily.MemberIDs = existing.MemberIDs
	}
	subfamily.ParentFamilyID = ownerID
	subfamily.CreatedAt = existing.CreatedAt
	subfamily.UpdatedAt = time.Now().UTC()
	*existing = subfamily

	if err := s.writeTreeUnversioned(ctx, ownerID, tree); err != nil {
		return nil, err
	}

	return existing, nil
}

// DeleteSubfamily removes a grouping. Deleting an absent subfamily is not
// an error.
func (s *TreeService) DeleteSubfamily(ctx context.Context, ownerID, subfamilyID string) error {
	tree, err := s.LoadTree(ctx, ownerID)
	if err != nil {
		return err
	}

	remaining := make([]models.Subfamily, 0, len(tree.Subfamilies))
	removed := false
	for _, sf := range tree.Subfamilies {
		if sf.ID == subfamilyID {
			removed = true
			continue
		}
		remaining = append(remaining, sf)
	}
	if !removed {
		return nil
	}
	tree.Subfamilies = remaining

	return s.writeTreeUnversioned(ctx, ownerID, tree)
}

// writeTreeUnversioned persists the aggregate without touching the version
// counter or history. Used by subfamily writes only.
func (s *TreeService) writeTreeUnversioned(ctx context.Context, ownerID string, tree *models.FamilyTree) error {
	tree.ID = ownerID
	tree.OwnerID = ownerID
	tree.UpdatedAt = time.Now().UTC()
	if err := s.store.Set(ctx, collectionTrees, ownerID, tree, false); err != nil {
		return fmt.Errorf("failed to save tree: %w", err)
	}
	return nil
}
