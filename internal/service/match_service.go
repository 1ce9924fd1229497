package service

import (
	"context"
	"errors"
	"fmt"
	"rootline/internal/docstore"
	"rootline/internal/insights"
	"rootline/internal/models"
	"sort"
	"time"
)

const collectionAnalyses = "dnaAnalyses"

// MatchService post-processes relative-match results from the analysis
// collaborator and maintains each user's stored analysis document. It knows
// nothing about the tree graph.
type MatchService struct {
	store    docstore.Store
	analyzer insights.Analyzer
}

// NewMatchService creates a new match service
func NewMatchService(store docstore.Store, analyzer insights.Analyzer) *MatchService {
	return &MatchService{store: store, analyzer: analyzer}
}

// GetAnalysis returns a user's stored analysis document, or an empty one if
// nothing has been stored yet.
func (s *MatchService) GetAnalysis(ctx context.Context, userID string) (*models.DNAAnalysis, error) {
	analysis := &models.DNAAnalysis{}
	err := s.store.Get(ctx, collectionAnalyses, userID, analysis)
	if errors.Is(err, docstore.ErrNotFound) {
		now := time.Now().UTC()
		return &models.DNAAnalysis{
			UserID:    userID,
			Matches:   []models.RelativeMatch{},
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}
	return analysis, nil
}

// RefreshMatches asks the collaborator for fresh matches against the
// candidate set and merges the results into the stored analysis.
func (s *MatchService) RefreshMatches(ctx context.Context, userID string, candidateIDs []string) (*models.DNAAnalysis, error) {
	results, err := s.analyzer.FindRelativeMatches(ctx, insights.MatchInput{
		UserID:       userID,
		CandidateIDs: candidateIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch relative matches: %w", err)
	}

	return s.MergeMatches(ctx, userID, candidateIDs, results)
}

// MergeMatches folds collaborator results into the user's analysis. Results
// naming a user outside the candidate set are dropped, probabilities are
// clamped to [0,1], a result for an already-matched user replaces the stored
// match, and the final list is sorted by probability descending.
func (s *MatchService) MergeMatches(ctx context.Context, userID string, candidateIDs []string, results []models.RelativeMatch) (*models.DNAAnalysis, error) {
	analysis, err := s.GetAnalysis(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := make(map[string]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		candidates[id] = true
	}

	byUser := make(map[string]int, len(analysis.Matches))
	for i, match := range analysis.Matches {
		byUser[match.UserID] = i
	}

	for _, match := range results {
		if !candidates[match.UserID] {
			continue
		}
		if match.RelationshipProbability < 0 {
			match.RelationshipProbability = 0
		}
		if match.RelationshipProbability > 1 {
			match.RelationshipProbability = 1
		}

		if i, ok := byUser[match.UserID]; ok {
			analysis.Matches[i] = match
		} else {
			byUser[match.UserID] = len(analysis.Matches)
			analysis.Matches = append(analysis.Matches, match)
		}
	}

	sort.SliceStable(analysis.Matches, func(i, j int) bool {
		return analysis.Matches[i].RelationshipProbability > analysis.Matches[j].RelationshipProbability
	})

	analysis.UpdatedAt = time.Now().UTC()
	if err := s.store.Set(ctx, collectionAnalyses, userID, analysis, false); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	return analysis, nil
}

// DeleteAnalysis removes a user's stored analysis document.
func (s *MatchService) DeleteAnalysis(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, collectionAnalyses, userID); err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}
