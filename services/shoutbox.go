package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/matlog/analytics"
	"github.com/cppla/matlog/models"
	"github.com/cppla/matlog/utils"
)

// ShoutboxService stores and lists group chat lines.
type ShoutboxService struct {
	db           *gorm.DB
	tracker      *analytics.Tracker
	maxLength    int
	pageSize     int
	defaultGroup string
}

// NewShoutboxService creates a shoutbox service. maxLength is counted in runes.
func NewShoutboxService(db *gorm.DB, tracker *analytics.Tracker, maxLength, pageSize int, defaultGroup string) *ShoutboxService {
	if maxLength <= 0 {
		maxLength = 500
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if defaultGroup == "" {
		defaultGroup = models.DefaultGroupID
	}
	return &ShoutboxService{db: db, tracker: tracker, maxLength: maxLength, pageSize: pageSize, defaultGroup: defaultGroup}
}

// Post stores a user message after stripping markup. The author must have a username.
func (s *ShoutboxService) Post(ctx context.Context, userID, groupID, content string) (*models.ShoutboxMessage, error) {
	if !ValidGroupID(groupID) {
		return nil, ErrInvalidGroup
	}
	text := utils.PlainText(content)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > s.maxLength {
		return nil, ErrMessageTooLong
	}

	settings, err := loadSettings(ctx, s.db, userID, s.defaultGroup)
	if err != nil {
		return nil, err
	}
	if !settings.HasUsername() {
		return nil, ErrUsernameRequired
	}

	msg := models.ShoutboxMessage{
		GroupID:  groupID,
		UserID:   userID,
		Username: settings.DisplayName(),
		Content:  text,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	s.tracker.Track(ctx, analytics.Context{UserID: userID}, analytics.EventMessagePosted, map[string]interface{}{"group_id": groupID})
	return &msg, nil
}

// PostSystem stores a server generated line. Failures are logged only.
func (s *ShoutboxService) PostSystem(ctx context.Context, groupID, content string) {
	msg := models.ShoutboxMessage{
		GroupID:  groupID,
		Content:  utils.PlainText(content),
		IsSystem: true,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		utils.Logger.Warn("system shoutbox insert failed", zap.String("group_id", groupID), zap.Error(err))
	}
}

// List returns up to limit messages for groupID, newest first.
// When beforeID is non-zero only older messages are returned.
func (s *ShoutboxService) List(ctx context.Context, groupID string, beforeID uint, limit int) ([]models.ShoutboxMessage, error) {
	if !ValidGroupID(groupID) {
		return nil, ErrInvalidGroup
	}
	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}
	q := s.db.WithContext(ctx).Where("group_id = ?", groupID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	messages := []models.ShoutboxMessage{}
	if err := q.Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}
