package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/matlog/analytics"
	"github.com/cppla/matlog/middleware"
	"github.com/cppla/matlog/utils"
)

const maxEventNameLength = 64

// AnalyticsController accepts client side tracking events.
type AnalyticsController struct {
	tracker *analytics.Tracker
}

// NewAnalyticsController creates a new AnalyticsController instance.
func NewAnalyticsController(tracker *analytics.Tracker) *AnalyticsController {
	return &AnalyticsController{tracker: tracker}
}

// Track stores the event and always answers 202; tracking never fails the client.
func (a *AnalyticsController) Track(ctx *gin.Context) {
	var req struct {
		Name       string                 `json:"name"`
		Page       string                 `json:"page"`
		Properties map[string]interface{} `json:"properties"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Name == "" {
		utils.Accepted(ctx)
		return
	}
	if len(req.Name) > maxEventNameLength {
		req.Name = req.Name[:maxEventNameLength]
	}
	userID, _ := getUserID(ctx)
	a.tracker.Track(ctx.Request.Context(), analytics.Context{
		UserID:   userID,
		Page:     req.Page,
		ClientID: ctx.GetHeader(middleware.ClientIDHeader),
	}, req.Name, req.Properties)
	utils.Accepted(ctx)
}
