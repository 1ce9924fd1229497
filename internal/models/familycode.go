package models

import "time"

// FamilyCode is an 8-character join code that lets a new user attach to a
// family head's tree. Codes expire one year after creation and can be
// deactivated earlier.
type FamilyCode struct {
	Code        string    `json:"code"`
	GeneratedBy string    `json:"generatedBy"`
	FamilyName  string    `json:"familyName"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// IsExpired reports whether the code's expiry has passed.
func (c *FamilyCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsValid reports whether the code is active and unexpired.
func (c *FamilyCode) IsValid() bool {
	return c.IsActive && !c.IsExpired()
}
