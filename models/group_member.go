package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// GroupMember is a leaderboard row. Score and badges are recomputed from sessions on
// every sync; the table is a cache and sessions remain the source of truth.
type GroupMember struct {
	UserID    string         `gorm:"primaryKey;size:64" json:"user_id"`
	GroupID   string         `gorm:"primaryKey;size:64" json:"group_id"`
	Username  string         `gorm:"size:32" json:"username"`
	Score     float64        `gorm:"not null;default:0;index" json:"score"`
	Badges    datatypes.JSON `json:"badges"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BadgeList decodes the stored badge set.
func (m GroupMember) BadgeList() []string {
	badges := []string{}
	if len(m.Badges) == 0 {
		return badges
	}
	_ = json.Unmarshal(m.Badges, &badges)
	return badges
}

// SetBadges encodes badges into the JSON column.
func (m *GroupMember) SetBadges(badges []string) {
	if badges == nil {
		badges = []string{}
	}
	b, _ := json.Marshal(badges)
	m.Badges = datatypes.JSON(b)
}
