package insights

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"rootline/internal/docstore"
	"rootline/internal/models"
)

const treeCollection = "familyTrees"

// HeuristicAnalyzer is a tree-overlap matcher used when no external
// analysis service is configured. It scores candidates by the member
// names the two trees have in common.
type HeuristicAnalyzer struct {
	store docstore.Store
}

// NewHeuristicAnalyzer creates an analyzer backed by the document store
func NewHeuristicAnalyzer(store docstore.Store) *HeuristicAnalyzer {
	return &HeuristicAnalyzer{store: store}
}

// FindRelativeMatches scores each candidate by name overlap between
// their tree and the user's. Candidates without a stored tree, or with
// no overlap, produce no match.
func (a *HeuristicAnalyzer) FindRelativeMatches(ctx context.Context, input MatchInput) ([]models.RelativeMatch, error) {
	userNames, err := a.memberNames(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return []models.RelativeMatch{}, nil
		}
		return nil, fmt.Errorf("failed to load tree for %s: %w", input.UserID, err)
	}
	if len(userNames) == 0 {
		return []models.RelativeMatch{}, nil
	}

	matches := []models.RelativeMatch{}
	for _, candidateID := range input.CandidateIDs {
		if candidateID == input.UserID {
			continue
		}

		candidateNames, err := a.memberNames(ctx, candidateID)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load tree for %s: %w", candidateID, err)
		}

		common := intersect(userNames, candidateNames)
		if len(common) == 0 {
			continue
		}

		smaller := len(userNames)
		if len(candidateNames) < smaller {
			smaller = len(candidateNames)
		}
		probability := float64(len(common)) / float64(smaller)
		if probability > 1 {
			probability = 1
		}

		matches = append(matches, models.RelativeMatch{
			UserID:                  candidateID,
			PredictedRelationship:   relationshipForOverlap(probability),
			RelationshipProbability: probability,
			CommonAncestors:         common,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].RelationshipProbability > matches[j].RelationshipProbability
	})
	return matches, nil
}

func (a *HeuristicAnalyzer) memberNames(ctx context.Context, userID string) (map[string]string, error) {
	var tree models.FamilyTree
	if err := a.store.Get(ctx, treeCollection, userID, &tree); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(tree.Members))
	for _, member := range tree.Members {
		key := strings.ToLower(strings.TrimSpace(member.FullName))
		if key == "" {
			continue
		}
		names[key] = member.FullName
	}
	return names, nil
}

func intersect(a, b map[string]string) []string {
	var common []string
	for key, display := range a {
		if _, ok := b[key]; ok {
			common = append(common, display)
		}
	}
	sort.Strings(common)
	return common
}

func relationshipForOverlap(probability float64) string {
	switch {
	case probability >= 0.5:
		return "close family"
	case probability >= 0.25:
		return "cousin"
	default:
		return "distant relative"
	}
}
