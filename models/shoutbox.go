package models

import "time"

// ShoutboxMessage is a chat line in a group's activity feed.
// System messages are generated by the server (e.g. a newly logged session) and carry no user.
type ShoutboxMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GroupID   string    `gorm:"size:64;not null;index:idx_shoutbox_group_created,priority:1" json:"group_id"`
	UserID    string    `gorm:"size:64;index" json:"user_id,omitempty"`
	Username  string    `gorm:"size:32" json:"username"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsSystem  bool      `gorm:"not null;default:false" json:"is_system"`
	CreatedAt time.Time `gorm:"index:idx_shoutbox_group_created,priority:2" json:"created_at"`
}
