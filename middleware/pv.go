package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/matlog/analytics"
)

// ClientIDHeader lets clients tag analytics events with an install id.
const ClientIDHeader = "X-Client-ID"

// PageViewTracker records a page view for successful authenticated GET requests.
func PageViewTracker(tracker *analytics.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}
		userID, ok := CurrentUserID(c)
		if !ok {
			return
		}

		// Route template keeps ids out of the page key, e.g. /api/v1/groups/:group/members
		page := c.FullPath()
		if page == "" {
			page = c.Request.URL.Path
		}
		tracker.Track(c.Request.Context(), analytics.Context{
			UserID:   userID,
			Page:     page,
			ClientID: c.GetHeader(ClientIDHeader),
		}, analytics.EventPageView, map[string]interface{}{"status": status})
	}
}
