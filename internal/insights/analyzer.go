// Package insights defines the contract for the external DNA analysis
// collaborator. The application never inspects how matches are produced; it
// supplies candidates and post-processes whatever comes back.
package insights

import (
	"context"

	"rootline/internal/models"
)

// MatchInput is the request handed to the analysis collaborator: the user
// being analyzed and the closed set of candidate user IDs matches may refer
// to. Results naming any other user are discarded by the post-processor.
type MatchInput struct {
	UserID       string
	CandidateIDs []string
}

// Analyzer finds relative-match candidates for a user. An empty slice is a
// valid answer meaning no matches, distinct from an error.
type Analyzer interface {
	FindRelativeMatches(ctx context.Context, input MatchInput) ([]models.RelativeMatch, error)
}
