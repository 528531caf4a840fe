package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playhuddle/backend/internal/models"
	"github.com/playhuddle/backend/internal/util"
)

// RecordErrors ingests a batch of client-reported errors
// POST /api/v1/errors
func (h *Handlers) RecordErrors(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req models.ErrorBatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	if len(req.Errors) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_errors_provided"})
		return
	}

	recordedCount := h.errors.RecordPayloadBatch(userID, req)

	c.JSON(http.StatusOK, gin.H{
		"status":         "recorded",
		"recorded_count": recordedCount,
		"total_count":    len(req.Errors),
	})
}

// GetErrorStats returns aggregate error statistics (admin only)
// GET /api/v1/errors/stats
func (h *Handlers) GetErrorStats(c *gin.Context) {
	hours := util.ParseInt(c.DefaultQuery("hours", "24"), 24)
	if hours < 1 {
		hours = 1
	}
	if hours > 168 { // max one week
		hours = 168
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	stats, err := h.errors.Stats(c.Request.Context(), since)
	if err != nil {
		util.RespondInternalError(c, "Failed to compute error stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}
