package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/cppla/matlog/analytics"
	"github.com/cppla/matlog/config"
)

// Services bundles the domain services shared by the HTTP layer and the CLI.
type Services struct {
	Sessions    *SessionService
	Leaderboard *LeaderboardSync
	Settings    *SettingsService
	Migration   *MigrationService
	Shoutbox    *ShoutboxService
	Tracker     *analytics.Tracker
}

// New wires every service from configuration.
func New(db *gorm.DB, cfg config.AppConfig, tracker *analytics.Tracker) *Services {
	delay := time.Duration(cfg.LeaderboardDebounceMS) * time.Millisecond
	cacheTTL := time.Duration(cfg.LeaderboardCacheSeconds) * time.Second
	group := cfg.DefaultGroupID

	sync := NewLeaderboardSync(db, delay, cacheTTL, group)
	shoutbox := NewShoutboxService(db, tracker, cfg.ShoutboxMaxLength, cfg.ShoutboxPageSize, group)
	return &Services{
		Sessions:    NewSessionService(db, sync, shoutbox, tracker, group),
		Leaderboard: sync,
		Settings:    NewSettingsService(db, sync, tracker, group),
		Migration:   NewMigrationService(db, sync, tracker, group),
		Shoutbox:    shoutbox,
		Tracker:     tracker,
	}
}

// Close drops queued leaderboard syncs and flushes analytics.
func (s *Services) Close() error {
	s.Leaderboard.Stop()
	return s.Tracker.Close()
}
