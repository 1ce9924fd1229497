// Package graph holds the pure structural checks for family trees. Nothing
// here touches storage; the tree service calls these at every mutation
// boundary, which is the only integrity gate the document store gives us.
package graph

import (
	"fmt"
	"log"
	"time"

	"rootline/internal/models"
)

// EdgeErrorCode classifies why an edge failed validation.
type EdgeErrorCode string

const (
	EdgeErrMissingSource EdgeErrorCode = "MissingSource"
	EdgeErrMissingTarget EdgeErrorCode = "MissingTarget"
	EdgeErrSelfLoop      EdgeErrorCode = "SelfLoop"
)

// EdgeResult is the tagged result of a single-edge check.
type EdgeResult struct {
	Valid   bool
	Code    EdgeErrorCode
	Message string
}

// DateResult is the tagged result of a date check.
type DateResult struct {
	IsValid bool
	Message string
}

// CleanupResult reports what an orphaned-edge sweep did.
type CleanupResult struct {
	CleanedEdges []models.FamilyEdge
	RemovedEdges []models.FamilyEdge
	RemovedCount int
}

// minBirthYear is the oldest accepted birth year. Records older than this
// are assumed to be data-entry mistakes.
const minBirthYear = 1800

// maxAgeAtDeath caps the plausible span between birth and death years.
const maxAgeAtDeath = 150

// dateLayouts are the accepted input formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006",
}

// CleanupOrphanedEdges removes every edge whose source or target is no
// longer in the member set. Edge order is preserved and removal is
// all-or-nothing per edge. Running it twice is a no-op.
func CleanupOrphanedEdges(members []models.FamilyMember, edges []models.FamilyEdge) CleanupResult {
	ids := make(map[string]bool, len(members))
	for i := range members {
		ids[members[i].ID] = true
	}

	cleaned := make([]models.FamilyEdge, 0, len(edges))
	var removed []models.FamilyEdge
	for _, edge := range edges {
		if ids[edge.FromID] && ids[edge.ToID] {
			cleaned = append(cleaned, edge)
			continue
		}
		removed = append(removed, edge)
		log.Printf("removing orphaned edge %s: %s -> %s (%s)", edge.ID, edge.FromID, edge.ToID, edge.Type)
	}

	return CleanupResult{
		CleanedEdges: cleaned,
		RemovedEdges: removed,
		RemovedCount: len(removed),
	}
}

// ValidateEdge checks a single edge against the current member set. It does
// not look for duplicate edges or cycles; both are allowed.
func ValidateEdge(edge models.FamilyEdge, members []models.FamilyMember) EdgeResult {
	if edge.FromID == edge.ToID {
		return EdgeResult{Code: EdgeErrSelfLoop, Message: "relationship cannot point at the same member"}
	}

	hasFrom, hasTo := false, false
	for i := range members {
		if members[i].ID == edge.FromID {
			hasFrom = true
		}
		if members[i].ID == edge.ToID {
			hasTo = true
		}
	}

	if !hasFrom {
		return EdgeResult{Code: EdgeErrMissingSource, Message: fmt.Sprintf("source member %s is not in the tree", edge.FromID)}
	}
	if !hasTo {
		return EdgeResult{Code: EdgeErrMissingTarget, Message: fmt.Sprintf("target member %s is not in the tree", edge.ToID)}
	}

	return EdgeResult{Valid: true}
}

// ValidateBirthDate checks a birth date string. Empty input is valid: the
// field is optional.
func ValidateBirthDate(dateStr string) DateResult {
	if dateStr == "" {
		return DateResult{IsValid: true}
	}

	date, ok := parseDate(dateStr)
	if !ok {
		return DateResult{Message: fmt.Sprintf("unrecognized date %q", dateStr)}
	}

	now := time.Now()
	if date.After(now) {
		return DateResult{Message: "birth date cannot be in the future"}
	}
	if date.Year() < minBirthYear {
		return DateResult{Message: fmt.Sprintf("birth year must be %d or later", minBirthYear)}
	}
	if date.Year() > now.Year() {
		return DateResult{Message: "birth year cannot be past the current year"}
	}

	return DateResult{IsValid: true}
}

// ValidateDeathDate checks a death date string, optionally against a birth
// date. Empty input is valid.
func ValidateDeathDate(dateStr, birthDateStr string) DateResult {
	if dateStr == "" {
		return DateResult{IsValid: true}
	}

	date, ok := parseDate(dateStr)
	if !ok {
		return DateResult{Message: fmt.Sprintf("unrecognized date %q", dateStr)}
	}

	now := time.Now()
	if date.After(now) {
		return DateResult{Message: "death date cannot be in the future"}
	}
	if date.Year() < minBirthYear {
		return DateResult{Message: fmt.Sprintf("death year must be %d or later", minBirthYear)}
	}
	if date.Year() > now.Year() {
		return DateResult{Message: "death year cannot be past the current year"}
	}

	if birthDateStr != "" {
		if birth, ok := parseDate(birthDateStr); ok {
			if date.Before(birth) {
				return DateResult{Message: "death date cannot precede birth date"}
			}
			if date.Year()-birth.Year() > maxAgeAtDeath {
				return DateResult{Message: fmt.Sprintf("age at death cannot exceed %d years", maxAgeAtDeath)}
			}
		}
	}

	return DateResult{IsValid: true}
}

// ValidateDates checks birth then death, returning the first failure.
func ValidateDates(birthDateStr, deathDateStr string) DateResult {
	if result := ValidateBirthDate(birthDateStr); !result.IsValid {
		return result
	}
	return ValidateDeathDate(deathDateStr, birthDateStr)
}

// TreeWarnings reports advisory problems that do not block a save: heads of
// family other than exactly one, and edges pointing at missing members.
func TreeWarnings(tree *models.FamilyTree) []string {
	var warnings []string

	var heads []string
	for i := range tree.Members {
		if tree.Members[i].IsHeadOfFamily {
			heads = append(heads, tree.Members[i].FullName)
		}
	}
	if len(heads) > 1 {
		warnings = append(warnings, fmt.Sprintf("%d members are flagged head of family", len(heads)))
	}
	if len(heads) == 0 && len(tree.Members) > 0 {
		warnings = append(warnings, "no member is flagged head of family")
	}

	ids := tree.MemberIDSet()
	orphans := 0
	for _, edge := range tree.Edges {
		if !ids[edge.FromID] || !ids[edge.ToID] {
			orphans++
		}
	}
	if orphans > 0 {
		warnings = append(warnings, fmt.Sprintf("%d relationships reference members no longer in the tree", orphans))
	}

	return warnings
}

// parseDate tries each accepted layout in turn.
func parseDate(dateStr string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, dateStr); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}
