package service

import (
	"context"
	"errors"
	"fmt"
	"rootline/internal/docstore"
	"rootline/internal/models"
	"time"

	"github.com/google/uuid"
)

const collectionShares = "treeShares"

var (
	ErrShareNotFound = errors.New("share not found")
	ErrForbidden     = errors.New("access denied")
)

// AccessLevel is the resolved outcome of an access check on a tree.
type AccessLevel struct {
	CanView bool
	CanEdit bool
	IsOwner bool
}

// ShareService manages cross-user access grants to trees. Grants never
// expire; revocation is the only way out.
type ShareService struct {
	store docstore.Store
}

// NewShareService creates a new share service
func NewShareService(store docstore.Store) *ShareService {
	return &ShareService{store: store}
}

// GrantShare gives targetUserID access to ownerID's tree at the given role.
// An existing grant for the same target is replaced rather than duplicated.
func (s *ShareService) GrantShare(ctx context.Context, ownerID, targetUserID, targetEmail string, role models.ShareRole) (*models.ShareGrant, error) {
	if !models.IsValidShareRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidationFailed, role)
	}
	if targetUserID == "" {
		return nil, fmt.Errorf("%w: target user is required", ErrValidationFailed)
	}
	if targetUserID == ownerID {
		return nil, fmt.Errorf("%w: cannot share a tree with its owner", ErrValidationFailed)
	}

	now := time.Now().UTC()
	existing, err := s.findGrant(ctx, ownerID, targetUserID)
	if err != nil {
		return nil, err
	}

	grant := &models.ShareGrant{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		TargetUserID: targetUserID,
		TargetEmail:  targetEmail,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if existing != nil {
		grant.ID = existing.ID
		grant.CreatedAt = existing.CreatedAt
	}

	if err := s.store.Set(ctx, collectionShares, grant.ID, grant, false); err != nil {
		return nil, fmt.Errorf("failed to save share: %w", err)
	}

	return grant, nil
}

// UpdateShareRole changes the role on an existing grant.
func (s *ShareService) UpdateShareRole(ctx context.Context, ownerID, shareID string, role models.ShareRole) (*models.ShareGrant, error) {
	if !models.IsValidShareRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidationFailed, role)
	}

	grant := &models.ShareGrant{}
	err := s.store.Get(ctx, collectionShares, shareID, grant)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	if grant.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	grant.Role = role
	grant.UpdatedAt = time.Now().UTC()

	if err := s.store.Set(ctx, collectionShares, grant.ID, grant, false); err != nil {
		return nil, fmt.Errorf("failed to update share: %w", err)
	}

	return grant, nil
}

// RevokeShare removes a grant. Only the tree owner may revoke.
func (s *ShareService) RevokeShare(ctx context.Context, ownerID, shareID string) error {
	grant := &models.ShareGrant{}
	err := s.store.Get(ctx, collectionShares, shareID, grant)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrShareNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get share: %w", err)
	}
	if grant.OwnerID != ownerID {
		return ErrForbidden
	}

	if err := s.store.Delete(ctx, collectionShares, shareID); err != nil {
		return fmt.Errorf("failed to delete share: %w", err)
	}
	return nil
}

// ResolveAccess computes what userID may do with ownerID's tree. The owner
// always has full access; anyone else needs a grant.
func (s *ShareService) ResolveAccess(ctx context.Context, ownerID, userID string) (AccessLevel, error) {
	if userID == ownerID {
		return AccessLevel{CanView: true, CanEdit: true, IsOwner: true}, nil
	}

	grant, err := s.findGrant(ctx, ownerID, userID)
	if err != nil {
		return AccessLevel{}, err
	}
	if grant == nil {
		return AccessLevel{}, nil
	}

	return AccessLevel{CanView: true, CanEdit: grant.CanEdit()}, nil
}

// ListShares returns every grant an owner has issued.
func (s *ShareService) ListShares(ctx context.Context, ownerID string) ([]models.ShareGrant, error) {
	raws, err := s.store.Query(ctx, collectionShares, []docstore.Filter{{Field: "ownerId", Value: ownerID}}, "createdAt", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to query shares: %w", err)
	}
	return docstore.DecodeAll[models.ShareGrant](raws)
}

// ListSharedWithUser returns every grant naming userID as the target, for
// the "trees shared with me" screen.
func (s *ShareService) ListSharedWithUser(ctx context.Context, userID string) ([]models.ShareGrant, error) {
	raws, err := s.store.Query(ctx, collectionShares, []docstore.Filter{{Field: "targetUserId", Value: userID}}, "createdAt", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to query shares: %w", err)
	}
	return docstore.DecodeAll[models.ShareGrant](raws)
}

// findGrant returns the grant from ownerID to targetUserID, or nil.
func (s *ShareService) findGrant(ctx context.Context, ownerID, targetUserID string) (*models.ShareGrant, error) {
	filters := []docstore.Filter{
		{Field: "ownerId", Value: ownerID},
		{Field: "targetUserId", Value: targetUserID},
	}
	raws, err := s.store.Query(ctx, collectionShares, filters, "", 1)
	if err != nil {
		return nil, fmt.Errorf("failed to query share: %w", err)
	}
	grants, err := docstore.DecodeAll[models.ShareGrant](raws)
	if err != nil {
		return nil, fmt.Errorf("failed to decode share: %w", err)
	}
	if len(grants) == 0 {
		return nil, nil
	}
	return &grants[0], nil
}
