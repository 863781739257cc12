package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/matlog/analytics"
	"github.com/cppla/matlog/models"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)
	groupPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// ValidUsername reports whether name is 3-20 letters, digits, underscores or hyphens.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// ValidGroupID reports whether id can name a group.
func ValidGroupID(id string) bool {
	return groupPattern.MatchString(id)
}

// SettingsInput is a partial update; nil fields are left unchanged.
type SettingsInput struct {
	Username *string `json:"username"`
	GroupID  *string `json:"group_id"`
}

// SettingsService reads and writes per-user settings.
type SettingsService struct {
	db           *gorm.DB
	sync         *LeaderboardSync
	tracker      *analytics.Tracker
	defaultGroup string
}

// NewSettingsService creates a settings service.
func NewSettingsService(db *gorm.DB, sync *LeaderboardSync, tracker *analytics.Tracker, defaultGroup string) *SettingsService {
	if defaultGroup == "" {
		defaultGroup = models.DefaultGroupID
	}
	return &SettingsService{db: db, sync: sync, tracker: tracker, defaultGroup: defaultGroup}
}

// Get returns the user's settings, or defaults when none are stored yet.
func (s *SettingsService) Get(ctx context.Context, userID string) (models.UserSettings, error) {
	return loadSettings(ctx, s.db, userID, s.defaultGroup)
}

// Update applies in and schedules a leaderboard sync when the username or group changed.
func (s *SettingsService) Update(ctx context.Context, userID string, in SettingsInput) (models.UserSettings, error) {
	current, err := loadSettings(ctx, s.db, userID, s.defaultGroup)
	if err != nil {
		return models.UserSettings{}, err
	}
	next := current

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if !ValidUsername(name) {
			return current, ErrInvalidUsername
		}
		var taken int64
		err := s.db.WithContext(ctx).Model(&models.UserSettings{}).
			Where("username = ? AND user_id <> ?", name, userID).
			Count(&taken).Error
		if err != nil {
			return current, fmt.Errorf("check username: %w", err)
		}
		if taken > 0 {
			return current, ErrUsernameTaken
		}
		next.Username = &name
	}
	if in.GroupID != nil {
		group := strings.TrimSpace(*in.GroupID)
		if !ValidGroupID(group) {
			return current, ErrInvalidGroup
		}
		next.GroupID = group
	}

	next.UpdatedAt = time.Now()
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "group_id", "updated_at"}),
	}).Create(&next).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return current, ErrUsernameTaken
		}
		return current, fmt.Errorf("save settings: %w", err)
	}

	nameChanged := next.DisplayName() != current.DisplayName()
	groupChanged := next.GroupID != current.GroupID
	if nameChanged || groupChanged {
		s.sync.Schedule(userID)
	}
	tc := analytics.Context{UserID: userID}
	if nameChanged {
		s.tracker.Track(ctx, tc, analytics.EventUsernameSet, nil)
	}
	if groupChanged {
		s.tracker.Track(ctx, tc, analytics.EventGroupChanged, map[string]interface{}{"from": current.GroupID, "to": next.GroupID})
	}
	return next, nil
}

// loadSettings returns the stored settings for userID or an unsaved default row.
func loadSettings(ctx context.Context, db *gorm.DB, userID, defaultGroup string) (models.UserSettings, error) {
	var settings models.UserSettings
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.UserSettings{UserID: userID, GroupID: defaultGroup}, nil
	}
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("load settings: %w", err)
	}
	if settings.GroupID == "" {
		settings.GroupID = defaultGroup
	}
	return settings, nil
}
