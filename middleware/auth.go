package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/matlog/config"
	"github.com/cppla/matlog/models"
	"github.com/cppla/matlog/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextEmailKey stores the email claim, empty for anonymous users.
	ContextEmailKey = "email"
	// ContextAnonymousKey marks users signed in without an email.
	ContextAnonymousKey = "is_anonymous"
)

// AuthRequired ensures the request carries a valid bearer token from the auth provider.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID())
		ctx.Set(ContextEmailKey, claims.Email)
		ctx.Set(ContextAnonymousKey, claims.IsAnonymous)
		ctx.Next()
	}
}

// OptionalAuth sets the user context when a valid bearer token is present and never rejects.
func OptionalAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if claims, err := utils.ParseToken(strings.TrimSpace(parts[1])); err == nil {
				ctx.Set(ContextUserIDKey, claims.UserID())
				ctx.Set(ContextEmailKey, claims.Email)
				ctx.Set(ContextAnonymousKey, claims.IsAnonymous)
			}
		}
		ctx.Next()
	}
}

// CurrentUserID returns the authenticated user id set by AuthRequired.
func CurrentUserID(ctx *gin.Context) (string, bool) {
	id := ctx.GetString(ContextUserIDKey)
	return id, id != ""
}

// AdminRequired allows only users whose username is listed in AdminUsernames.
// It must run after AuthRequired.
func AdminRequired(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, ok := CurrentUserID(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
			ctx.Abort()
			return
		}
		var settings models.UserSettings
		if err := db.WithContext(ctx.Request.Context()).Where("user_id = ?", userID).First(&settings).Error; err != nil || !isAdmin(settings.DisplayName()) {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin only")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func isAdmin(username string) bool {
	if username == "" {
		return false
	}
	for _, name := range config.Get().AdminUsernames {
		if strings.EqualFold(name, username) {
			return true
		}
	}
	return false
}
