package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/matlog/analytics"
	"github.com/cppla/matlog/gamify"
	"github.com/cppla/matlog/models"
)

// SessionInput is a session as submitted by the user.
type SessionInput struct {
	Date  string `json:"date"`
	Type  string `json:"type"`
	Level string `json:"level"`
}

// SessionService scores and stores training sessions.
type SessionService struct {
	db           *gorm.DB
	sync         *LeaderboardSync
	shoutbox     *ShoutboxService
	tracker      *analytics.Tracker
	defaultGroup string
}

// NewSessionService creates a session service.
func NewSessionService(db *gorm.DB, sync *LeaderboardSync, shoutbox *ShoutboxService, tracker *analytics.Tracker, defaultGroup string) *SessionService {
	if defaultGroup == "" {
		defaultGroup = models.DefaultGroupID
	}
	return &SessionService{db: db, sync: sync, shoutbox: shoutbox, tracker: tracker, defaultGroup: defaultGroup}
}

// Create validates, scores and stores a session. Points are computed against every
// session the user already has and never change afterwards.
func (s *SessionService) Create(ctx context.Context, userID string, in SessionInput) (*models.Session, error) {
	sessionType := strings.TrimSpace(in.Type)
	if !gamify.IsSessionType(sessionType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionType, in.Type)
	}
	level := strings.TrimSpace(in.Level)
	if !gamify.IsClassLevel(level) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidClassLevel, in.Level)
	}
	date, err := gamify.NormalizeDateToISO(strings.TrimSpace(in.Date))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, in.Date)
	}

	settings, err := loadSettings(ctx, s.db, userID, s.defaultGroup)
	if err != nil {
		return nil, err
	}

	session := models.Session{
		UserID:  userID,
		GroupID: settings.GroupID,
		Date:    date,
		Type:    sessionType,
		Level:   level,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Session
		if err := tx.Where("user_id = ?", userID).Find(&existing).Error; err != nil {
			return err
		}
		for _, e := range existing {
			if e.Date == date && e.Type == sessionType {
				return ErrDuplicateSession
			}
		}
		session.Points = gamify.ScoreSession(models.ScoringViews(existing), session.Scoring())
		return tx.Create(&session).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateSession) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateSession
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}

	s.sync.Schedule(userID)
	if settings.HasUsername() {
		s.shoutbox.PostSystem(ctx, settings.GroupID,
			fmt.Sprintf("%s logged a %s session (%s) for %.1f points", settings.DisplayName(), session.Type, session.Level, session.Points))
	}
	s.tracker.Track(ctx, analytics.Context{UserID: userID}, analytics.EventSessionLogged, map[string]interface{}{
		"type":   session.Type,
		"level":  session.Level,
		"points": session.Points,
	})
	return &session, nil
}

// List returns the user's sessions, newest date first.
func (s *SessionService) List(ctx context.Context, userID string) ([]models.Session, error) {
	sessions := []models.Session{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Delete removes one of the user's sessions. Sessions of other users are reported as not found.
func (s *SessionService) Delete(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Session{})
	if res.Error != nil {
		return fmt.Errorf("delete session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	s.sync.Schedule(userID)
	s.tracker.Track(ctx, analytics.Context{UserID: userID}, analytics.EventSessionDeleted, map[string]interface{}{"session_id": id})
	return nil
}
