package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playhuddle/backend/internal/database"
	"github.com/playhuddle/backend/internal/models"
	"github.com/playhuddle/backend/internal/share"
	"github.com/playhuddle/backend/internal/telemetry"
	"github.com/playhuddle/backend/internal/util"
)

type shareRequestBody struct {
	Targets    []string `json:"targets"`
	Message    string   `json:"message"`
	Visibility string   `json:"visibility"`
}

// ShareToFriends shares a content item with selected friends
// POST /api/v1/contents/:id/share/friends
func (h *Handlers) ShareToFriends(c *gin.Context) {
	h.executeShare(c, models.ShareKindFriends)
}

// ShareToFeed reposts a content item to the actor's own feed
// POST /api/v1/contents/:id/share/feed
func (h *Handlers) ShareToFeed(c *gin.Context) {
	h.executeShare(c, models.ShareKindFeed)
}

// ShareToGroups shares a content item into groups the actor belongs to
// POST /api/v1/contents/:id/share/groups
func (h *Handlers) ShareToGroups(c *gin.Context) {
	h.executeShare(c, models.ShareKindGroups)
}

func (h *Handlers) executeShare(c *gin.Context, shareKind string) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	contentID := c.Param("id")
	if contentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content ID is required"})
		return
	}

	var body shareRequestBody
	if err := c.ShouldBindJSON(&body); err != nil && shareKind != models.ShareKindFeed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	req := &share.Request{
		ContentID:  contentID,
		ActorID:    userID,
		ShareKind:  shareKind,
		Targets:    body.Targets,
		Message:    body.Message,
		Visibility: body.Visibility,
	}

	ctx, span := telemetry.GetBusinessEvents().TraceShare(c.Request.Context(), userID, telemetry.ShareEventAttrs{
		ContentID:   contentID,
		ShareKind:   shareKind,
		TargetCount: int64(len(body.Targets)),
	})
	defer span.End()

	var out share.Outcome
	switch shareKind {
	case models.ShareKindFriends:
		out = h.shareService.ShareToFriends(ctx, req)
	case models.ShareKindFeed:
		out = h.shareService.ShareToFeed(ctx, req)
	case models.ShareKindGroups:
		out = h.shareService.ShareToGroups(ctx, req)
	}

	outcome := "success"
	if !out.Success {
		outcome = out.Category
	}
	telemetry.FinishShare(span, telemetry.ShareEventAttrs{Outcome: outcome})

	if out.Success {
		resp := gin.H{
			"success":       true,
			"share":         out.Share,
			"valid_targets": out.ValidTargets,
		}
		if out.Repost != nil {
			resp["repost"] = out.Repost
		}
		if len(out.Warnings) > 0 {
			resp["warnings"] = out.Warnings
		}
		if len(out.InvalidTargets) > 0 {
			resp["invalid_targets"] = out.InvalidTargets
		}
		c.JSON(http.StatusCreated, resp)
		return
	}

	status := statusForCategory(out.Category)
	resp := gin.H{
		"success":  false,
		"category": out.Category,
		"message":  out.Message,
	}
	if len(out.Errors) > 0 {
		resp["errors"] = out.Errors
	}
	if len(out.Warnings) > 0 {
		resp["warnings"] = out.Warnings
	}
	if len(out.InvalidTargets) > 0 {
		resp["invalid_targets"] = out.InvalidTargets
	}
	if out.RetryAfter > 0 {
		resp["retry_after"] = out.RetryAfter
		c.Header("Retry-After", strconv.Itoa(out.RetryAfter))
	}
	c.JSON(status, resp)
}

func statusForCategory(category string) int {
	switch category {
	case models.ErrorCategoryValidation:
		return http.StatusBadRequest
	case models.ErrorCategoryPermission:
		return http.StatusForbidden
	case models.ErrorCategoryRateLimit:
		return http.StatusTooManyRequests
	case models.ErrorCategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ListContentShares lists shares of a content item, newest first
// GET /api/v1/contents/:id/shares
func (h *Handlers) ListContentShares(c *gin.Context) {
	contentID := c.Param("id")
	if contentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content ID is required"})
		return
	}

	limit, offset := paginationParams(c)

	ctx, span := telemetry.GetBusinessEvents().TraceListShares(
		c.Request.Context(), "content", int64(limit), int64(offset))
	defer span.End()

	var shares []models.Share
	if err := database.DB.WithContext(ctx).
		Where("content_id = ?", contentID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&shares).Error; err != nil {
		util.RespondInternalError(c, "Failed to fetch shares")
		return
	}

	var total int64
	database.DB.Model(&models.Share{}).Where("content_id = ?", contentID).Count(&total)

	c.JSON(http.StatusOK, gin.H{
		"shares": shares,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"total":  total,
		},
	})
}

// ListUserShares lists shares performed by a user, newest first
// GET /api/v1/users/:id/shares
func (h *Handlers) ListUserShares(c *gin.Context) {
	targetUserID := c.Param("id")
	if targetUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user ID is required"})
		return
	}

	limit, offset := paginationParams(c)

	ctx, span := telemetry.GetBusinessEvents().TraceListShares(
		c.Request.Context(), "user", int64(limit), int64(offset))
	defer span.End()

	var shares []models.Share
	if err := database.DB.WithContext(ctx).
		Where("actor_id = ?", targetUserID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&shares).Error; err != nil {
		util.RespondInternalError(c, "Failed to fetch shares")
		return
	}

	var total int64
	database.DB.Model(&models.Share{}).Where("actor_id = ?", targetUserID).Count(&total)

	c.JSON(http.StatusOK, gin.H{
		"shares": shares,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"total":  total,
		},
	})
}

// DeleteShare removes a share the authenticated user created, along with
// its repost and feed activity for feed shares
// DELETE /api/v1/shares/:id
func (h *Handlers) DeleteShare(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	shareID := c.Param("id")
	if shareID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "share ID is required"})
		return
	}

	err := h.shareService.Unshare(c.Request.Context(), userID, shareID)
	switch {
	case errors.Is(err, share.ErrShareNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "share not found"})
	case errors.Is(err, share.ErrNotShareOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only delete your own shares"})
	case err != nil:
		util.RespondInternalError(c, "Failed to delete share")
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// GetGlobalFeed returns the newest share activities across all users,
// served from the global stream feed
// GET /api/v1/feed/shares
func (h *Handlers) GetGlobalFeed(c *gin.Context) {
	limit, offset := paginationParams(c)

	activities, err := h.stream.GetGlobalShares(limit, offset)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch feed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}

// GetUserFeed returns a user's share activities from their stream feed
// GET /api/v1/users/:id/feed
func (h *Handlers) GetUserFeed(c *gin.Context) {
	targetUserID := c.Param("id")
	if targetUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user ID is required"})
		return
	}

	limit, offset := paginationParams(c)

	activities, err := h.stream.GetUserShares(targetUserID, limit, offset)
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch feed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}

func paginationParams(c *gin.Context) (limit, offset int) {
	limit = util.ParseInt(c.DefaultQuery("limit", "20"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset = util.ParseInt(c.DefaultQuery("offset", "0"), 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
