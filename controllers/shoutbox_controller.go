package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/matlog/services"
	"github.com/cppla/matlog/utils"
)

// ShoutboxController serves a group's chat feed.
type ShoutboxController struct {
	shoutbox *services.ShoutboxService
}

// NewShoutboxController creates a new ShoutboxController instance.
func NewShoutboxController(shoutbox *services.ShoutboxService) *ShoutboxController {
	return &ShoutboxController{shoutbox: shoutbox}
}

// ListMessages returns the newest messages; ?before=<id> pages backwards.
func (s *ShoutboxController) ListMessages(ctx *gin.Context) {
	group := strings.TrimSpace(ctx.Param("group"))
	before := parseUintDefault(ctx.Query("before"), 0)
	limit := parseIntDefault(ctx.Query("limit"), 0)

	messages, err := s.shoutbox.List(ctx.Request.Context(), group, before, limit)
	if errors.Is(err, services.ErrInvalidGroup) {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid group id")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load messages")
		return
	}
	utils.Success(ctx, gin.H{"items": messages})
}

// PostMessage adds a chat line from the caller.
func (s *ShoutboxController) PostMessage(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	msg, err := s.shoutbox.Post(ctx.Request.Context(), userID, strings.TrimSpace(ctx.Param("group")), req.Content)
	switch {
	case err == nil:
		utils.Success(ctx, gin.H{"message": msg})
	case errors.Is(err, services.ErrInvalidGroup):
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid group id")
	case errors.Is(err, services.ErrEmptyMessage):
		utils.Error(ctx, http.StatusBadRequest, 40051, err.Error())
	case errors.Is(err, services.ErrMessageTooLong):
		utils.Error(ctx, http.StatusBadRequest, 40052, err.Error())
	case errors.Is(err, services.ErrUsernameRequired):
		utils.Error(ctx, http.StatusForbidden, 40350, "choose a username before posting")
	default:
		utils.Sugar.Errorw("post message failed", "user_id", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to post message")
	}
}
