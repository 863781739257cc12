package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultGroupID is the group every user starts in.
const DefaultGroupID = "global"

// UserSettings stores per-user preferences. Username stays NULL until onboarding.
type UserSettings struct {
	UserID         string    `gorm:"primaryKey;size:64" json:"user_id"`
	Username       *string   `gorm:"size:32;uniqueIndex" json:"username"`
	GroupID        string    `gorm:"size:64;not null;default:'global'" json:"group_id"`
	LegacyMigrated bool      `gorm:"not null;default:false" json:"legacy_migrated"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasUsername reports whether onboarding set a username.
func (u UserSettings) HasUsername() bool {
	return u.Username != nil && *u.Username != ""
}

// DisplayName returns the username or an empty string.
func (u UserSettings) DisplayName() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *UserSettings) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
