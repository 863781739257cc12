package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/matlog/gamify"
)

// Session is one logged training session. Points are fixed when the session is scored.
// (user_id, date, type) is unique and doubles as the upsert key for legacy imports.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:64;not null;index;uniqueIndex:idx_sessions_user_date_type,priority:1" json:"user_id"`
	GroupID   string    `gorm:"size:64;not null;default:'global';index" json:"group_id"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_sessions_user_date_type,priority:2" json:"date"`
	Type      string    `gorm:"size:32;not null;uniqueIndex:idx_sessions_user_date_type,priority:3" json:"type"`
	Level     string    `gorm:"size:32;not null" json:"level"`
	Points    float64   `gorm:"not null;default:0" json:"points"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when none was provided.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Scoring returns the view of the session used by the scoring engines.
func (s Session) Scoring() gamify.Session {
	return gamify.Session{Date: s.Date, Type: s.Type, Level: s.Level, Points: s.Points}
}

// ScoringViews converts sessions for the scoring engines.
func ScoringViews(sessions []Session) []gamify.Session {
	out := make([]gamify.Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Scoring())
	}
	return out
}
