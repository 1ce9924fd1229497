package service

import (
	"context"
	"errors"
	"testing"

	"rootline/internal/docstore"
	"rootline/internal/insights"
	"rootline/internal/models"
)

// stubAnalyzer returns canned matches or an error.
type stubAnalyzer struct {
	matches []models.RelativeMatch
	err     error
}

func (a *stubAnalyzer) FindRelativeMatches(ctx context.Context, input insights.MatchInput) ([]models.RelativeMatch, error) {
	return a.matches, a.err
}

func TestMergeMatches(t *testing.T) {
	s := NewMatchService(docstore.NewMemStore(), &stubAnalyzer{})
	ctx := context.Background()

	candidates := []string{"u1", "u2", "u3"}
	results := []models.RelativeMatch{
		{UserID: "u1", PredictedRelationship: "cousin", RelationshipProbability: 0.4},
		{UserID: "outsider", PredictedRelationship: "sibling", RelationshipProbability: 0.99},
		{UserID: "u2", PredictedRelationship: "aunt", RelationshipProbability: 1.7},
		{UserID: "u3", PredictedRelationship: "uncle", RelationshipProbability: -0.3},
	}

	analysis, err := s.MergeMatches(ctx, "me", candidates, results)
	if err != nil {
		t.Fatalf("MergeMatches() error: %v", err)
	}

	if len(analysis.Matches) != 3 {
		t.Fatalf("match count = %d, want 3 (outsider dropped)", len(analysis.Matches))
	}
	for _, m := range analysis.Matches {
		if m.UserID == "outsider" {
			t.Error("match outside the candidate set survived")
		}
		if m.RelationshipProbability < 0 || m.RelationshipProbability > 1 {
			t.Errorf("probability %f outside [0,1]", m.RelationshipProbability)
		}
	}

	// Ordered by probability descending
	if analysis.Matches[0].UserID != "u2" {
		t.Errorf("first match = %s, want u2 (clamped to 1.0)", analysis.Matches[0].UserID)
	}
	if analysis.Matches[2].UserID != "u3" {
		t.Errorf("last match = %s, want u3 (clamped to 0)", analysis.Matches[2].UserID)
	}
}

func TestMergeMatchesReplacesExisting(t *testing.T) {
	s := NewMatchService(docstore.NewMemStore(), &stubAnalyzer{})
	ctx := context.Background()

	candidates := []string{"u1", "u2"}
	if _, err := s.MergeMatches(ctx, "me", candidates, []models.RelativeMatch{
		{UserID: "u1", PredictedRelationship: "cousin", RelationshipProbability: 0.4},
		{UserID: "u2", PredictedRelationship: "aunt", RelationshipProbability: 0.6},
	}); err != nil {
		t.Fatalf("MergeMatches() error: %v", err)
	}

	analysis, err := s.MergeMatches(ctx, "me", candidates, []models.RelativeMatch{
		{UserID: "u1", PredictedRelationship: "half-sibling", RelationshipProbability: 0.9},
	})
	if err != nil {
		t.Fatalf("MergeMatches() error: %v", err)
	}

	if len(analysis.Matches) != 2 {
		t.Fatalf("match count = %d, want 2 (replace, not append)", len(analysis.Matches))
	}
	if analysis.Matches[0].UserID != "u1" || analysis.Matches[0].PredictedRelationship != "half-sibling" {
		t.Errorf("first match = %+v, want the replacement for u1", analysis.Matches[0])
	}
}

func TestMergeMatchesEmptyResults(t *testing.T) {
	s := NewMatchService(docstore.NewMemStore(), &stubAnalyzer{})

	analysis, err := s.MergeMatches(context.Background(), "me", []string{"u1"}, nil)
	if err != nil {
		t.Fatalf("MergeMatches() error: %v", err)
	}
	if len(analysis.Matches) != 0 {
		t.Errorf("matches = %v, want empty", analysis.Matches)
	}
}

func TestRefreshMatches(t *testing.T) {
	analyzer := &stubAnalyzer{
		matches: []models.RelativeMatch{
			{UserID: "u1", PredictedRelationship: "cousin", RelationshipProbability: 0.8},
		},
	}
	s := NewMatchService(docstore.NewMemStore(), analyzer)
	ctx := context.Background()

	analysis, err := s.RefreshMatches(ctx, "me", []string{"u1"})
	if err != nil {
		t.Fatalf("RefreshMatches() error: %v", err)
	}
	if len(analysis.Matches) != 1 {
		t.Fatalf("match count = %d, want 1", len(analysis.Matches))
	}

	stored, err := s.GetAnalysis(ctx, "me")
	if err != nil {
		t.Fatalf("GetAnalysis() error: %v", err)
	}
	if len(stored.Matches) != 1 {
		t.Error("refresh result was not persisted")
	}
}

func TestRefreshMatchesAnalyzerError(t *testing.T) {
	wantErr := errors.New("collaborator unavailable")
	s := NewMatchService(docstore.NewMemStore(), &stubAnalyzer{err: wantErr})

	_, err := s.RefreshMatches(context.Background(), "me", []string{"u1"})
	if !errors.Is(err, wantErr) {
		t.Errorf("RefreshMatches() error = %v, want wrapped collaborator error", err)
	}
}

func TestGetAnalysisAbsent(t *testing.T) {
	s := NewMatchService(docstore.NewMemStore(), &stubAnalyzer{})

	analysis, err := s.GetAnalysis(context.Background(), "me")
	if err != nil {
		t.Fatalf("GetAnalysis() error: %v", err)
	}
	if analysis.UserID != "me" || len(analysis.Matches) != 0 {
		t.Errorf("fresh analysis = %+v", analysis)
	}
}
