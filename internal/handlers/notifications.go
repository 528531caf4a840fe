package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetNotifications gets the user's notifications with unseen/unread counts
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	streamUserID := c.GetString("stream_user_id")
	if streamUserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	notifs, err := h.stream.GetNotifications(streamUserID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_notifications", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups": notifs.Groups,
		"unseen": notifs.Unseen,
		"unread": notifs.Unread,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(notifs.Groups),
		},
	})
}

// GetNotificationCounts gets just the unseen/unread counts for badge display
// GET /api/v1/notifications/counts
func (h *Handlers) GetNotificationCounts(c *gin.Context) {
	streamUserID := c.GetString("stream_user_id")
	if streamUserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
		return
	}

	unseen, unread, err := h.stream.GetNotificationCounts(streamUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_get_notification_counts", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unseen": unseen,
		"unread": unread,
	})
}

// MarkNotificationsRead marks all notifications as read
// POST /api/v1/notifications/read
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	streamUserID := c.GetString("stream_user_id")
	if streamUserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
		return
	}

	if err := h.stream.MarkNotificationsRead(streamUserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_mark_read", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// MarkNotificationsSeen marks all notifications as seen (clears badge)
// POST /api/v1/notifications/seen
func (h *Handlers) MarkNotificationsSeen(c *gin.Context) {
	streamUserID := c.GetString("stream_user_id")
	if streamUserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
		return
	}

	if err := h.stream.MarkNotificationsSeen(streamUserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_mark_seen", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
