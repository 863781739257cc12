package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/matlog/services"
	"github.com/cppla/matlog/utils"
)

// LeaderboardController serves group member lists.
type LeaderboardController struct {
	sync *services.LeaderboardSync
}

// NewLeaderboardController creates a new LeaderboardController instance.
func NewLeaderboardController(sync *services.LeaderboardSync) *LeaderboardController {
	return &LeaderboardController{sync: sync}
}

// ListMembers returns the group's members by score. The caller's own row is recomputed
// on read so it reflects sessions that have not been synced yet.
func (l *LeaderboardController) ListMembers(ctx *gin.Context) {
	group := strings.TrimSpace(ctx.Param("group"))
	if !services.ValidGroupID(group) {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid group id")
		return
	}

	members, err := l.sync.Members(ctx.Request.Context(), group)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load members")
		return
	}

	if userID, ok := getUserID(ctx); ok {
		self, named, err := l.sync.SelfMember(ctx.Request.Context(), userID)
		if err != nil {
			utils.Sugar.Warnw("self overlay skipped", "user_id", userID, "error", err)
		} else if named && self.GroupID == group {
			members = services.OverlaySelf(members, self)
		}
	}

	utils.Success(ctx, gin.H{"group_id": group, "items": members})
}

// Rebuild recomputes every member row, optionally for one group.
func (l *LeaderboardController) Rebuild(ctx *gin.Context) {
	group := strings.TrimSpace(ctx.Query("group"))
	if group != "" && !services.ValidGroupID(group) {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid group id")
		return
	}
	synced, err := l.sync.Rebuild(ctx.Request.Context(), group)
	if err != nil {
		utils.Sugar.Errorw("leaderboard rebuild incomplete", "group", group, "synced", synced, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50041, "leaderboard rebuild incomplete")
		return
	}
	utils.Success(ctx, gin.H{"synced": synced})
}
