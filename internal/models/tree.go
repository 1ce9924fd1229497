package models

import "time"

// VersionHistoryLimit caps how many save summaries a tree retains. Older
// entries are dropped silently; this is a bounded audit trail, not an undo
// log.
const VersionHistoryLimit = 10

// VersionEntry is one line of a tree's save history.
type VersionEntry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Summary     string    `json:"summary"`
	SnapshotRef string    `json:"snapshotRef"`
}

// TreeVersion carries the monotonic save counter and the capped history.
type TreeVersion struct {
	Current int            `json:"current"`
	History []VersionEntry `json:"history"`
}

// TreeSettings holds per-tree display preferences. These are presentation
// hints only and never affect structural operations.
type TreeSettings struct {
	Theme          string `json:"theme"`
	Layout         string `json:"layout"`
	ShowPhotos     bool   `json:"showPhotos"`
	ShowBirthDates bool   `json:"showBirthDates"`
	HighlightHeads bool   `json:"highlightHeads"`
}

// DefaultTreeSettings returns the settings a freshly synthesized tree gets.
func DefaultTreeSettings() TreeSettings {
	return TreeSettings{
		Theme:          "classic",
		Layout:         "vertical",
		ShowPhotos:     true,
		ShowBirthDates: true,
		HighlightHeads: true,
	}
}

// Annotation is a free-form canvas note attached to a tree.
type Annotation struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FamilyTree is the aggregate root, one per owning user, with ID equal to
// the owner's ID. The whole aggregate is rewritten on every save; there is
// no partial update path for members or edges.
type FamilyTree struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"ownerId"`
	Members     []FamilyMember `json:"members"`
	Edges       []FamilyEdge   `json:"edges"`
	Subfamilies []Subfamily    `json:"subfamilies,omitempty"`
	Settings    TreeSettings   `json:"settings"`
	Annotations []Annotation   `json:"annotations"`
	Version     TreeVersion    `json:"version"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// NewFamilyTree builds the empty skeleton synthesized on first access.
func NewFamilyTree(ownerID string) *FamilyTree {
	now := time.Now().UTC()
	return &FamilyTree{
		ID:          ownerID,
		OwnerID:     ownerID,
		Members:     []FamilyMember{},
		Edges:       []FamilyEdge{},
		Settings:    DefaultTreeSettings(),
		Annotations: []Annotation{},
		Version:     TreeVersion{Current: 1},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FindMember returns the member with the given ID, or nil.
func (t *FamilyTree) FindMember(id string) *FamilyMember {
	for i := range t.Members {
		if t.Members[i].ID == id {
			return &t.Members[i]
		}
	}
	return nil
}

// FindSubfamily returns the subfamily with the given ID, or nil.
func (t *FamilyTree) FindSubfamily(id string) *Subfamily {
	for i := range t.Subfamilies {
		if t.Subfamilies[i].ID == id {
			return &t.Subfamilies[i]
		}
	}
	return nil
}

// MemberIDSet returns the set of member IDs currently in the tree.
func (t *FamilyTree) MemberIDSet() map[string]bool {
	ids := make(map[string]bool, len(t.Members))
	for i := range t.Members {
		ids[t.Members[i].ID] = true
	}
	return ids
}
