package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/matlog/config"
	"github.com/cppla/matlog/controllers"
	"github.com/cppla/matlog/middleware"
	"github.com/cppla/matlog/services"
	"github.com/cppla/matlog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, svc *services.Services) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to the application logger when no access log path is configured
		r.Use(utils.RecoveryWithZap(utils.Logger, true))
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.ClientIDHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))
	// Record page views after each authenticated request
	r.Use(middleware.PageViewTracker(svc.Tracker))

	sessionController := controllers.NewSessionController(svc.Sessions)
	settingsController := controllers.NewSettingsController(svc.Settings)
	leaderboardController := controllers.NewLeaderboardController(svc.Leaderboard)
	shoutboxController := controllers.NewShoutboxController(svc.Shoutbox)
	migrationController := controllers.NewMigrationController(svc.Migration)
	analyticsController := controllers.NewAnalyticsController(svc.Tracker)
	statsController := controllers.NewStatsController(db)
	configController := controllers.NewConfigController()

	api := r.Group("/api/v1")

	api.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	// Public endpoints
	api.GET("/stats", statsController.GetStats)
	api.GET("/config/gamification", configController.GetGamification)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.GET("/sessions", sessionController.ListSessions)
	protected.POST("/sessions", sessionController.CreateSession)
	protected.DELETE("/sessions/:id", sessionController.DeleteSession)

	protected.GET("/me/avatar", sessionController.GetAvatar)
	protected.GET("/me/settings", settingsController.GetSettings)
	protected.PUT("/me/settings", settingsController.UpdateSettings)

	protected.GET("/groups/:group/members", leaderboardController.ListMembers)
	protected.GET("/groups/:group/shoutbox", shoutboxController.ListMessages)
	protected.POST("/groups/:group/shoutbox", middleware.UserRateLimit(cfg.ShoutboxPostsPerMinute), shoutboxController.PostMessage)

	protected.GET("/migration/status", migrationController.Status)
	protected.POST("/migration", migrationController.Migrate)
	protected.POST("/migration/dismiss", migrationController.Dismiss)

	// Tracking accepts anonymous callers and always answers 202
	api.POST("/analytics", middleware.OptionalAuth(), analyticsController.Track)

	admin := protected.Group("/admin")
	admin.Use(middleware.AdminRequired(db))
	admin.POST("/leaderboard/rebuild", leaderboardController.Rebuild)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
