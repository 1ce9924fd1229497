package models

import "time"

// TimelineEventType enumerates the kinds of dated entries a member's
// timeline can carry.
type TimelineEventType string

const (
	TimelinePhoto TimelineEventType = "photo"
	TimelineVideo TimelineEventType = "video"
	TimelineAudio TimelineEventType = "audio"
	TimelineEvent TimelineEventType = "event"
	TimelineNote  TimelineEventType = "note"
)

// TimelineEntry is a dated sub-event attached to a member (photo, video,
// audio, life event or note). Entries are appended lazily as users add them.
type TimelineEntry struct {
	ID          string            `json:"id"`
	Type        TimelineEventType `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	MediaURL    string            `json:"mediaUrl,omitempty"`
	Date        string            `json:"date,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// ContactInfo holds a member's contact details.
type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// FamilyMember is a person node in a family tree. The ID is opaque and
// stable for the member's lifetime. X/Y are a presentation hint for the
// canvas layout, not authoritative data.
type FamilyMember struct {
	ID             string                 `json:"id"`
	FullName       string                 `json:"fullName"`
	FirstName      string                 `json:"firstName,omitempty"`
	LastName       string                 `json:"lastName,omitempty"`
	Generation     *int                   `json:"generation,omitempty"`
	X              *float64               `json:"x,omitempty"`
	Y              *float64               `json:"y,omitempty"`
	IsHeadOfFamily bool                   `json:"isHeadOfFamily"`
	IsDeceased     bool                   `json:"isDeceased"`
	Ethnicity      string                 `json:"ethnicity,omitempty"`
	OriginRegions  []string               `json:"originRegions,omitempty"`
	Contact        ContactInfo            `json:"contact"`
	Timeline       []TimelineEntry        `json:"timeline,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
	CustomFields   map[string]CustomValue `json:"customFields,omitempty"`
	BirthDate      string                 `json:"birthDate,omitempty"`
	DeathDate      string                 `json:"deathDate,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// HasTag reports whether the member carries the given tag. Tags have set
// semantics but are stored in the order they were added.
func (m *FamilyMember) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends a tag if the member does not already carry it.
func (m *FamilyMember) AddTag(tag string) {
	if tag == "" || m.HasTag(tag) {
		return
	}
	m.Tags = append(m.Tags, tag)
}
