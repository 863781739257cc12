package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/matlog/gamify"
	"github.com/cppla/matlog/utils"
)

// ConfigController serves the static gamification rules so clients can render forms and hints.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetGamification returns session types, class levels with multipliers, avatar levels and badges.
func (c *ConfigController) GetGamification(ctx *gin.Context) {
	levels := make([]gin.H, 0, len(gamify.ClassLevels))
	for _, l := range gamify.ClassLevels {
		levels = append(levels, gin.H{"name": l, "multiplier": gamify.ClassMultiplier(l)})
	}
	utils.Success(ctx, gin.H{
		"session_types": gamify.SessionTypes,
		"class_levels":  levels,
		"avatar_levels": gamify.Levels,
		"badges":        gamify.Badges,
	})
}
