package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playhuddle/backend/internal/util"
)

// GetShareAnalytics returns share pipeline rollups (admin only)
// GET /api/v1/analytics/shares
func (h *Handlers) GetShareAnalytics(c *gin.Context) {
	days := util.ParseInt(c.DefaultQuery("days", "7"), 7)
	if days < 1 {
		days = 1
	}
	if days > 90 {
		days = 90
	}

	since := time.Now().AddDate(0, 0, -days)
	stats, err := h.analytics.GetShareStats(c.Request.Context(), since)
	if err != nil {
		util.RespondInternalError(c, "Failed to compute share stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"since": since.UTC().Format(time.RFC3339),
		"days":  days,
		"stats": stats,
	})
}
