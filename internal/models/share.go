package models

import "time"

// ShareRole is the access level a grant confers. There is no hierarchy
// beyond viewer < editor; the owner always has implicit full access.
type ShareRole string

const (
	RoleViewer ShareRole = "viewer"
	RoleEditor ShareRole = "editor"
)

// IsValidShareRole reports whether r is exactly viewer or editor.
func IsValidShareRole(r ShareRole) bool {
	return r == RoleViewer || r == RoleEditor
}

// ShareGrant lets another user load an owner's tree. Grants do not expire;
// family codes are the time-limited joining mechanism, grants are the
// ongoing one.
type ShareGrant struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	TargetUserID string    `json:"targetUserId"`
	TargetEmail  string    `json:"targetEmail,omitempty"`
	Role         ShareRole `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CanEdit reports whether the grant allows mutations.
func (g *ShareGrant) CanEdit() bool {
	return g.Role == RoleEditor
}
