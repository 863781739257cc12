package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/matlog/analytics"
	"github.com/cppla/matlog/config"
	"github.com/cppla/matlog/models"
	"github.com/cppla/matlog/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	config.Set(config.AppConfig{JWTSecret: "test-secret"})
	utils.SetRedis(nil)

	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: filepath.Join(t.TempDir(), "services.db"),
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := New(db, config.AppConfig{
		DefaultGroupID:        "global",
		LeaderboardDebounceMS: 10,
		ShoutboxMaxLength:     20,
		ShoutboxPageSize:      3,
	}, analytics.NewTracker(db, nil))
	t.Cleanup(func() { svc.Close() })
	return svc, db
}

func setUsername(t *testing.T, svc *Services, userID, name string) {
	t.Helper()
	_, err := svc.Settings.Update(context.Background(), userID, SettingsInput{Username: &name})
	require.NoError(t, err)
	// drain the sync scheduled by the username change
	svc.Leaderboard.debouncer.Cancel(userID)
}

func logSession(t *testing.T, svc *Services, userID, date, sessionType, level string) *models.Session {
	t.Helper()
	s, err := svc.Sessions.Create(context.Background(), userID, SessionInput{Date: date, Type: sessionType, Level: level})
	require.NoError(t, err)
	return s
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}
