package models

import "time"

// Subfamily is a named grouping overlay inside one tree: a subset of member
// IDs plus an optional head. Membership here never removes a member from the
// root tree, and subfamilies may overlap freely.
type Subfamily struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	HeadMemberID   string    `json:"headMemberId,omitempty"`
	MemberIDs      []string  `json:"memberIds"`
	ParentFamilyID string    `json:"parentFamilyId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Contains reports whether the subfamily includes the given member ID.
func (s *Subfamily) Contains(memberID string) bool {
	for _, id := range s.MemberIDs {
		if id == memberID {
			return true
		}
	}
	return false
}
