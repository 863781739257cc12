package middleware

import (
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
	"github.com/cppla/matlog/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupConfig(t *testing.T) {
	t.Helper()
	config.Set(config.AppConfig{JWTSecret: "middleware-secret", AdminUsernames: []string{"Coach"}})
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: filepath.Join(t.TempDir(), "mw.db"),
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	tok, err := utils.GenerateToken(userID, "", true, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAuthRequired(t *testing.T) {
	setupConfig(t)
	r := gin.New()
	r.GET("/me", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	expired, err := utils.GenerateToken("u1", "", false, -time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer  ", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"valid", bearer(t, "u1"), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestAuthRequiredSetsClaims(t *testing.T) {
	setupConfig(t)
	r := gin.New()
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "anon": c.GetBool(ContextAnonymousKey)})
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, "user-42"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"user-42","anon":true}`, w.Body.String())
}

func TestAdminRequired(t *testing.T) {
	setupConfig(t)
	db := newTestDB(t)
	coach, athlete := "coach", "athlete"
	require.NoError(t, db.Create(&models.UserSettings{UserID: "admin", Username: &coach, GroupID: "global"}).Error)
	require.NoError(t, db.Create(&models.UserSettings{UserID: "user", Username: &athlete, GroupID: "global"}).Error)

	r := gin.New()
	r.POST("/admin", AuthRequired(), AdminRequired(db), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for id, want := range map[string]int{"admin": http.StatusNoContent, "user": http.StatusForbidden, "ghost": http.StatusForbidden} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		req.Header.Set("Authorization", bearer(t, id))
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, id)
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit("test-scope", 4, func(c *gin.Context) string { return "same-key" }), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	// burst is half the per-minute budget
	assert.Equal(t, []int{200, 200, 429, 429}, codes)
}

func TestPageViewTracker(t *testing.T) {
	setupConfig(t)
	db := newTestDB(t)
	tracker := analytics.NewTracker(db, nil)

	r := gin.New()
	r.Use(PageViewTracker(tracker))
	r.GET("/public", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/groups/:group", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/groups/:group", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(method, path string, auth bool) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, nil)
		if auth {
			req.Header.Set("Authorization", bearer(t, "u1"))
			req.Header.Set(ClientIDHeader, "ios-1")
		}
		r.ServeHTTP(w, req)
	}
	send(http.MethodGet, "/public", false)
	send(http.MethodGet, "/groups/dojo", false)
	send(http.MethodPost, "/groups/dojo", true)
	send(http.MethodGet, "/groups/dojo", true)

	var events []models.AnalyticsEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, "/groups/:group", events[0].Page)
	assert.Equal(t, "ios-1", events[0].ClientID)
	assert.Equal(t, analytics.EventPageView, events[0].Name)
}
