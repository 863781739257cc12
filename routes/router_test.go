package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/matlog/analytics"
	"github.com/cppla/matlog/config"
	"github.com/cppla/matlog/models"
	"github.com/cppla/matlog/services"
	"github.com/cppla/matlog/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t   *testing.T
	r   *gin.Engine
	db  *gorm.DB
	svc *services.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.AppConfig{
		JWTSecret:             "router-secret",
		GinMode:               "test",
		GinPath:               filepath.Join(t.TempDir(), "gin.log"),
		RateLimitPerMinute:    1000,
		LeaderboardDebounceMS: 10,
		AdminUsernames:        []string{"coach"},
	}
	config.Set(cfg)
	cfg = config.Get()
	utils.SetRedis(nil)

	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: filepath.Join(t.TempDir(), "router.db"),
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	svc := services.New(db, cfg, analytics.NewTracker(db, nil))
	t.Cleanup(func() { svc.Close() })
	return &testServer{t: t, r: SetupRouter(db, svc), db: db, svc: svc}
}

func (s *testServer) do(method, path, userID string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		tok, err := utils.GenerateToken(userID, userID+"@example.com", false, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env := s.do(http.MethodGet, "/api/v1/config/gamification", "", nil)
	require.Equal(t, http.StatusOK, code)
	cfg := decode[struct {
		SessionTypes []string `json:"session_types"`
		Badges       []string `json:"badges"`
	}](t, env.Data)
	assert.Len(t, cfg.SessionTypes, 11)
	assert.Len(t, cfg.Badges, 4)

	code, env = s.do(http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 40400, env.Code)

	code, _ = s.do(http.MethodGet, "/api/v1/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodPost, "/api/v1/sessions", "u1", gin.H{"date": "2024-03-10", "type": "Boxing", "level": "Basic"})
	require.Equal(t, http.StatusOK, code, env.Message)
	created := decode[struct {
		Session models.Session `json:"session"`
	}](t, env.Data).Session
	assert.Equal(t, 1.0, created.Points)

	code, env = s.do(http.MethodPost, "/api/v1/sessions", "u1", gin.H{"date": "2024-03-10", "type": "Boxing", "level": "Basic"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, 40920, env.Code)

	code, env = s.do(http.MethodPost, "/api/v1/sessions", "u1", gin.H{"date": "??", "type": "Boxing", "level": "Basic"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 40021, env.Code)

	code, env = s.do(http.MethodPost, "/api/v1/sessions", "u1", gin.H{"date": "2024-03-11", "type": "Karate", "level": "Basic"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 40022, env.Code)

	code, env = s.do(http.MethodPost, "/api/v1/sessions", "u1", gin.H{"date": "2024-03-11"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 40020, env.Code)

	code, env = s.do(http.MethodGet, "/api/v1/sessions", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	list := decode[struct {
		Items []models.Session `json:"items"`
	}](t, env.Data)
	assert.Len(t, list.Items, 1)

	code, _ = s.do(http.MethodDelete, "/api/v1/sessions/"+created.ID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodDelete, "/api/v1/sessions/"+created.ID, "u1", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAvatarEndpoint(t *testing.T) {
	s := newTestServer(t)
	for _, d := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
		code, _ := s.do(http.MethodPost, "/api/v1/sessions", "u1", gin.H{"date": d, "type": "Wrestling", "level": "Advanced"})
		require.Equal(t, http.StatusOK, code)
	}

	code, env := s.do(http.MethodGet, "/api/v1/me/avatar", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	p := decode[services.Profile](t, env.Data)
	assert.Equal(t, "Novice", p.Avatar.Level)
	assert.Equal(t, 6.0, p.Avatar.CumulativePoints)
	assert.Equal(t, 75, p.Avatar.Progress)
	assert.Equal(t, []string{"Best Wrestler"}, p.Badges)
}

func TestSettingsAndLeaderboard(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodPut, "/api/v1/me/settings", "u1", gin.H{"username": "no"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 40031, env.Code)

	code, _ = s.do(http.MethodPut, "/api/v1/me/settings", "u1", gin.H{"username": "alpha", "group_id": "dojo"})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPut, "/api/v1/me/settings", "u2", gin.H{"username": "alpha"})
	assert.Equal(t, http.StatusConflict, code)
	code, _ = s.do(http.MethodPut, "/api/v1/me/settings", "u2", gin.H{"username": "bravo", "group_id": "dojo"})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/api/v1/sessions", "u2", gin.H{"date": "2024-03-11", "type": "BJJ", "level": "Advanced"})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, s.svc.Leaderboard.SyncNow(context.Background(), "u2"))

	// u1 has no stored row yet but sees itself through the overlay
	code, _ = s.do(http.MethodPost, "/api/v1/sessions", "u1", gin.H{"date": "2024-03-11", "type": "BJJ", "level": "Basic"})
	require.Equal(t, http.StatusOK, code)
	code, env = s.do(http.MethodGet, "/api/v1/groups/dojo/members", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	members := decode[struct {
		Items []models.GroupMember `json:"items"`
	}](t, env.Data).Items
	require.Len(t, members, 2)
	assert.Equal(t, "bravo", members[0].Username)
	assert.Equal(t, "alpha", members[1].Username)
	assert.Equal(t, 1.0, members[1].Score)

	code, _ = s.do(http.MethodGet, "/api/v1/groups/bad%20group/members", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestShoutboxEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodPost, "/api/v1/groups/global/shoutbox", "u1", gin.H{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, 40350, env.Code)

	code, _ = s.do(http.MethodPut, "/api/v1/me/settings", "u1", gin.H{"username": "talker"})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/v1/groups/global/shoutbox", "u1", gin.H{"content": "<b>oss</b>"})
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodGet, "/api/v1/groups/global/shoutbox", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	items := decode[struct {
		Items []models.ShoutboxMessage `json:"items"`
	}](t, env.Data).Items
	require.Len(t, items, 1)
	assert.Equal(t, "oss", items[0].Content)
}

func TestMigrationEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/api/v1/migration/status?has_local=1", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, services.MigrationNeeded, decode[services.MigrationStatus](t, env.Data).State)

	code, env = s.do(http.MethodPost, "/api/v1/migration", "u1", gin.H{"sessions": []gin.H{{"date": "2024-01-02"}}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 40061, env.Code)
	assert.Len(t, decode[services.MigrationResult](t, env.Data).Errors, 1)

	body := gin.H{"sessions": []gin.H{{"date": "2024-01-02", "type": "BJJ", "points": 1.5}}}
	code, env = s.do(http.MethodPost, "/api/v1/migration", "u1", body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decode[services.MigrationResult](t, env.Data).Imported)
	code, _ = s.do(http.MethodPost, "/api/v1/migration", "u1", body)
	require.Equal(t, http.StatusOK, code)

	var count int64
	require.NoError(t, s.db.Model(&models.Session{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	code, env = s.do(http.MethodGet, "/api/v1/migration/status?has_local=1", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, services.MigrationDone, decode[services.MigrationStatus](t, env.Data).State)

	code, _ = s.do(http.MethodPost, "/api/v1/migration/dismiss", "u2", nil)
	require.Equal(t, http.StatusOK, code)
}

func TestAnalyticsAlwaysAccepted(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodPost, "/api/v1/analytics", "", gin.H{"name": "app_opened"})
	assert.Equal(t, http.StatusAccepted, code)
	code, _ = s.do(http.MethodPost, "/api/v1/analytics", "u1", gin.H{"name": "tab_viewed", "page": "/leaderboard"})
	assert.Equal(t, http.StatusAccepted, code)
	code, _ = s.do(http.MethodPost, "/api/v1/analytics", "u1", "not an object")
	assert.Equal(t, http.StatusAccepted, code)

	var users []string
	require.NoError(t, s.db.Model(&models.AnalyticsEvent{}).Pluck("user_id", &users).Error)
	assert.ElementsMatch(t, []string{"", "u1"}, users)
}

func TestAdminRebuild(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(http.MethodPut, "/api/v1/me/settings", "boss", gin.H{"username": "coach"})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPut, "/api/v1/me/settings", "u1", gin.H{"username": "athlete"})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/api/v1/admin/leaderboard/rebuild", "u1", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(http.MethodPost, "/api/v1/admin/leaderboard/rebuild", "boss", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, decode[struct {
		Synced int `json:"synced"`
	}](t, env.Data).Synced)
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	today := time.Now().UTC().Format("2006-01-02")
	code, _ := s.do(http.MethodPost, "/api/v1/sessions", "u1", gin.H{"date": today, "type": "MMA", "level": "Basic"})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/v1/sessions", "u1", gin.H{"date": "2020-01-01", "type": "MMA", "level": "Basic"})
	require.Equal(t, http.StatusOK, code)

	code, env := s.do(http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[map[string]interface{}](t, env.Data)
	assert.Equal(t, 2.0, stats["session_count"])
	assert.Equal(t, 1.0, stats["athlete_count"])
	assert.Equal(t, 1.0, stats["sessions_this_week"])
}
