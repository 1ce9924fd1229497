package service

import (
	"context"
	"errors"
	"fmt"
	"rootline/internal/docstore"
	"rootline/internal/familycode"
	"rootline/internal/models"
	"time"
)

const collectionCodes = "familyCodes"

// codeLifetime is how long a family code stays redeemable after creation.
const codeLifetime = 365 * 24 * time.Hour

// maxCodeRetries bounds uniqueness retries when generating a code.
const maxCodeRetries = 10

var (
	ErrCodeNotFound       = errors.New("family code not found")
	ErrCodeInactive       = errors.New("family code is deactivated")
	ErrCodeExpired        = errors.New("family code has expired")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique family code")
)

// CodeService manages expiring family join codes. Redeeming a code grants
// the redeemer viewer access to the generator's tree, so the two access
// mechanisms meet at the join boundary.
type CodeService struct {
	store  docstore.Store
	shares *ShareService
}

// NewCodeService creates a new code service
func NewCodeService(store docstore.Store, shares *ShareService) *CodeService {
	return &CodeService{store: store, shares: shares}
}

// GenerateCode creates a fresh unique code for the user's family. Collisions
// are retried a bounded number of times before giving up.
func (s *CodeService) GenerateCode(ctx context.Context, userID, familyName string) (*models.FamilyCode, error) {
	for i := 0; i < maxCodeRetries; i++ {
		raw, err := familycode.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		existing := &models.FamilyCode{}
		err = s.store.Get(ctx, collectionCodes, raw, existing)
		if err == nil {
			continue // collision, try again
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
		}

		now := time.Now().UTC()
		code := &models.FamilyCode{
			Code:        raw,
			GeneratedBy: userID,
			FamilyName:  familyName,
			IsActive:    true,
			CreatedAt:   now,
			ExpiresAt:   now.Add(codeLifetime),
		}
		if err := s.store.Set(ctx, collectionCodes, raw, code, false); err != nil {
			return nil, fmt.Errorf("failed to save code: %w", err)
		}
		return code, nil
	}

	return nil, ErrCodeSpaceExhausted
}

// GetCode looks up a code by its normalized value.
func (s *CodeService) GetCode(ctx context.Context, code string) (*models.FamilyCode, error) {
	normalized := familycode.Normalize(code)
	if !familycode.ValidateFormat(normalized) {
		return nil, fmt.Errorf("%w: malformed code", ErrCodeNotFound)
	}

	familyCode := &models.FamilyCode{}
	err := s.store.Get(ctx, collectionCodes, normalized, familyCode)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get code: %w", err)
	}
	return familyCode, nil
}

// ListCodes returns every code a user has generated, newest first.
func (s *CodeService) ListCodes(ctx context.Context, userID string) ([]models.FamilyCode, error) {
	raws, err := s.store.Query(ctx, collectionCodes, []docstore.Filter{{Field: "generatedBy", Value: userID}}, "createdAt", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to query codes: %w", err)
	}
	return docstore.DecodeAll[models.FamilyCode](raws)
}

// Deactivate turns a code off before its natural expiry. Only the generator
// may deactivate.
func (s *CodeService) Deactivate(ctx context.Context, userID, code string) error {
	familyCode, err := s.GetCode(ctx, code)
	if err != nil {
		return err
	}
	if familyCode.GeneratedBy != userID {
		return ErrForbidden
	}

	familyCode.IsActive = false
	if err := s.store.Set(ctx, collectionCodes, familyCode.Code, familyCode, false); err != nil {
		return fmt.Errorf("failed to deactivate code: %w", err)
	}
	return nil
}

// RedeemCode exchanges a valid code for viewer access to the generator's
// tree. Inactive and expired codes are reported distinctly so callers can
// explain the failure.
func (s *CodeService) RedeemCode(ctx context.Context, redeemerID, redeemerEmail, code string) (*models.ShareGrant, error) {
	familyCode, err := s.GetCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !familyCode.IsActive {
		return nil, ErrCodeInactive
	}
	if familyCode.IsExpired() {
		return nil, ErrCodeExpired
	}
	if familyCode.GeneratedBy == redeemerID {
		return nil, fmt.Errorf("%w: cannot redeem your own code", ErrValidationFailed)
	}

	grant, err := s.shares.GrantShare(ctx, familyCode.GeneratedBy, redeemerID, redeemerEmail, models.RoleViewer)
	if err != nil {
		return nil, fmt.Errorf("failed to grant access for code: %w", err)
	}
	return grant, nil
}
