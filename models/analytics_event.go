package models

import (
	"time"

	"gorm.io/datatypes"
)

// AnalyticsEvent is a fire-and-forget tracking record.
type AnalyticsEvent struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	UserID     string         `gorm:"size:64;index" json:"user_id"`
	Name       string         `gorm:"size:64;not null;index" json:"name"`
	Page       string         `gorm:"size:255" json:"page"`
	ClientID   string         `gorm:"size:64" json:"client_id"`
	Properties datatypes.JSON `json:"properties"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

// All lists every model for auto-migration.
func All() []interface{} {
	return []interface{}{
		&Session{},
		&GroupMember{},
		&ShoutboxMessage{},
		&UserSettings{},
		&AnalyticsEvent{},
	}
}
