package services

import (
	"context"

	"github.com/cppla/matlog/gamify"
	"github.com/cppla/matlog/models"
)

// Profile is the derived gamified view of a user.
type Profile struct {
	UserID       string        `json:"user_id"`
	Username     string        `json:"username"`
	GroupID      string        `json:"group_id"`
	Avatar       gamify.Avatar `json:"avatar"`
	Badges       []string      `json:"badges"`
	SessionCount int           `json:"session_count"`
}

// Profile derives the user's avatar and badges from all of their sessions.
func (s *SessionService) Profile(ctx context.Context, userID string) (Profile, error) {
	settings, err := loadSettings(ctx, s.db, userID, s.defaultGroup)
	if err != nil {
		return Profile{}, err
	}
	sessions, err := s.List(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	views := models.ScoringViews(sessions)
	return Profile{
		UserID:       userID,
		Username:     settings.DisplayName(),
		GroupID:      settings.GroupID,
		Avatar:       gamify.AvatarFromSessions(views),
		Badges:       gamify.BadgesFromSessions(views),
		SessionCount: len(sessions),
	}, nil
}
