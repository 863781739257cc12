package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/matlog/services"
	"github.com/cppla/matlog/utils"
)

// SessionController handles logging, listing and deleting training sessions.
type SessionController struct {
	sessions *services.SessionService
}

// NewSessionController creates a new SessionController instance.
func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{sessions: sessions}
}

// CreateSession scores and stores a new session for the caller.
func (s *SessionController) CreateSession(ctx *gin.Context) {
	var req struct {
		Date  string `json:"date" binding:"required"`
		Type  string `json:"type" binding:"required"`
		Level string `json:"level" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	session, err := s.sessions.Create(ctx.Request.Context(), userID, services.SessionInput{
		Date:  req.Date,
		Type:  req.Type,
		Level: req.Level,
	})
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidDate):
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid date")
		return
	case errors.Is(err, services.ErrInvalidSessionType):
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid session type")
		return
	case errors.Is(err, services.ErrInvalidClassLevel):
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid class level")
		return
	case errors.Is(err, services.ErrDuplicateSession):
		utils.Error(ctx, http.StatusConflict, 40920, err.Error())
		return
	default:
		utils.Sugar.Errorw("create session failed", "user_id", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to save session")
		return
	}

	utils.Success(ctx, gin.H{"session": session})
}

// ListSessions returns the caller's sessions, newest first.
func (s *SessionController) ListSessions(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	sessions, err := s.sessions.List(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load sessions")
		return
	}
	utils.Success(ctx, gin.H{"items": sessions})
}

// DeleteSession removes one of the caller's sessions.
func (s *SessionController) DeleteSession(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	err := s.sessions.Delete(ctx.Request.Context(), userID, ctx.Param("id"))
	if errors.Is(err, services.ErrSessionNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40420, "session not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to delete session")
		return
	}
	utils.Success(ctx, gin.H{"deleted": ctx.Param("id")})
}

// GetAvatar returns the caller's level, progress, points and badges.
func (s *SessionController) GetAvatar(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	profile, err := s.sessions.Profile(ctx.Request.Context(), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load profile")
		return
	}
	utils.Success(ctx, profile)
}
