package models

import "time"

// EdgeType enumerates the supported relationship types between two members.
type EdgeType string

const (
	EdgeParent        EdgeType = "parent"
	EdgeSpouse        EdgeType = "spouse"
	EdgeAdoptive      EdgeType = "adoptive"
	EdgeStep          EdgeType = "step"
	EdgeBigSister     EdgeType = "big_sister"
	EdgeLittleSister  EdgeType = "little_sister"
	EdgeBigBrother    EdgeType = "big_brother"
	EdgeLittleBrother EdgeType = "little_brother"
	EdgeAunt          EdgeType = "aunt"
	EdgeUncle         EdgeType = "uncle"
	EdgeCousinBig     EdgeType = "cousin_big"
	EdgeCousinLittle  EdgeType = "cousin_little"
	EdgeGuardian      EdgeType = "guardian"
	EdgeOther         EdgeType = "other"
)

// edgeTypes is the closed set accepted on edge creation.
var edgeTypes = map[EdgeType]bool{
	EdgeParent: true, EdgeSpouse: true, EdgeAdoptive: true, EdgeStep: true,
	EdgeBigSister: true, EdgeLittleSister: true, EdgeBigBrother: true,
	EdgeLittleBrother: true, EdgeAunt: true, EdgeUncle: true,
	EdgeCousinBig: true, EdgeCousinLittle: true, EdgeGuardian: true,
	EdgeOther: true,
}

// IsValidEdgeType reports whether t is one of the known relationship types.
func IsValidEdgeType(t EdgeType) bool {
	return edgeTypes[t]
}

// FamilyEdge is a directed, typed relationship between two member IDs in
// the same tree. Multiple edges between the same pair, multiple types, and
// cycles are all allowed; the only structural rules are no self-loops and
// no dangling endpoints.
type FamilyEdge struct {
	ID        string    `json:"id"`
	FromID    string    `json:"fromId"`
	ToID      string    `json:"toId"`
	Type      EdgeType  `json:"type"`
	Strength  *float64  `json:"strength,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
