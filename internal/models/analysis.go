package models

import "time"

// RelativeMatch is one DNA match candidate produced by the analysis flow.
// UserID must come from the candidate set supplied to the flow; the
// post-processor drops anything else.
type RelativeMatch struct {
	UserID                  string   `json:"userId"`
	PredictedRelationship   string   `json:"predictedRelationship"`
	RelationshipProbability float64  `json:"relationshipProbability"`
	CommonAncestors         []string `json:"commonAncestors,omitempty"`
	SharedCentimorgans      *float64 `json:"sharedCentimorgans,omitempty"`
}

// DNAAnalysis is a user's stored analysis document. Sections hold free-form
// AI output decoded through CustomValue; Matches is maintained by the
// relative-match post-processor.
type DNAAnalysis struct {
	UserID    string                 `json:"userId"`
	Matches   []RelativeMatch        `json:"matches"`
	Sections  map[string]CustomValue `json:"sections,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}
