package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/matlog/services"
	"github.com/cppla/matlog/utils"
)

// SettingsController exposes the caller's username and group.
type SettingsController struct {
	settings *services.SettingsService
}

// NewSettingsController creates a new SettingsController instance.
func NewSettingsController(settings *services.SettingsService) *SettingsController {
	return &SettingsController{settings: settings}
}

// GetSettings returns stored settings or defaults.
func (s *SettingsController) GetSettings(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	settings, err := s.settings.Get(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load settings")
		return
	}
	utils.Success(ctx, gin.H{"settings": settings})
}

// UpdateSettings changes the username and/or group.
func (s *SettingsController) UpdateSettings(ctx *gin.Context) {
	var req services.SettingsInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	settings, err := s.settings.Update(ctx.Request.Context(), userID, req)
	switch {
	case err == nil:
		utils.Success(ctx, gin.H{"settings": settings})
	case errors.Is(err, services.ErrInvalidUsername):
		utils.Error(ctx, http.StatusBadRequest, 40031, err.Error())
	case errors.Is(err, services.ErrInvalidGroup):
		utils.Error(ctx, http.StatusBadRequest, 40032, err.Error())
	case errors.Is(err, services.ErrUsernameTaken):
		utils.Error(ctx, http.StatusConflict, 40930, err.Error())
	default:
		utils.Sugar.Errorw("update settings failed", "user_id", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save settings")
	}
}
