package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/matlog/gamify"
	"github.com/cppla/matlog/models"
	"github.com/cppla/matlog/utils"
)

// StatsController provides site-wide statistics such as session and member counts.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var sessionCount int64
	var athleteCount int64
	var memberCount int64
	var messageCount int64
	var weekCount int64

	if err := s.db.Model(&models.Session{}).Count(&sessionCount).Error; err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		sessionCount = 0
	}

	if err := s.db.Model(&models.Session{}).Distinct("user_id").Count(&athleteCount).Error; err != nil {
		athleteCount = 0
	}

	if err := s.db.Model(&models.GroupMember{}).Count(&memberCount).Error; err != nil {
		memberCount = 0
	}

	if err := s.db.Model(&models.ShoutboxMessage{}).Where("is_system = ?", false).Count(&messageCount).Error; err != nil {
		messageCount = 0
	}

	// Current training week in UTC; dates are stored as YYYY-MM-DD so string bounds compare correctly
	start, end := gamify.WeekBounds(time.Now().UTC())
	if err := s.db.Model(&models.Session{}).
		Where("date >= ? AND date < ?", start.Format(gamify.DateLayout), end.Format(gamify.DateLayout)).
		Count(&weekCount).Error; err != nil {
		weekCount = 0
	}

	utils.Success(ctx, gin.H{
		"session_count":      sessionCount,
		"athlete_count":      athleteCount,
		"member_count":       memberCount,
		"message_count":      messageCount,
		"sessions_this_week": weekCount,
		"week_start":         start.Format(gamify.DateLayout),
	})
}
