package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/matlog/services"
	"github.com/cppla/matlog/utils"
)

// MigrationController drives the one-time import of a pre-account local session list.
type MigrationController struct {
	migration *services.MigrationService
}

// NewMigrationController creates a new MigrationController instance.
func NewMigrationController(migration *services.MigrationService) *MigrationController {
	return &MigrationController{migration: migration}
}

// Status reports whether the client should offer a migration. ?has_local=1 tells the
// server that the client still holds local sessions.
func (m *MigrationController) Status(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	hasLocal := ctx.Query("has_local") == "1" || ctx.Query("has_local") == "true"
	status, err := m.migration.Status(ctx.Request.Context(), userID, hasLocal)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to load migration status")
		return
	}
	utils.Success(ctx, status)
}

// Migrate imports the posted legacy sessions.
func (m *MigrationController) Migrate(ctx *gin.Context) {
	var req struct {
		Sessions []services.LegacySession `json:"sessions"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	result, err := m.migration.Migrate(ctx.Request.Context(), userID, req.Sessions)
	switch {
	case err == nil:
		utils.Success(ctx, result)
	case errors.Is(err, services.ErrMigrationInProgress):
		utils.Error(ctx, http.StatusConflict, 40960, err.Error())
	case len(result.Errors) > 0:
		utils.Respond(ctx, http.StatusBadRequest, 40061, "legacy sessions rejected", result)
	default:
		utils.Sugar.Errorw("legacy migration failed", "user_id", userID, "error", err)
		utils.Respond(ctx, http.StatusInternalServerError, 50061, "legacy migration failed", result)
	}
}

// Dismiss records that the user does not want to migrate.
func (m *MigrationController) Dismiss(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	err := m.migration.Dismiss(ctx.Request.Context(), userID)
	if errors.Is(err, services.ErrMigrationInProgress) {
		utils.Error(ctx, http.StatusConflict, 40960, err.Error())
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to dismiss migration")
		return
	}
	utils.Success(ctx, gin.H{"legacy_migrated": true})
}
