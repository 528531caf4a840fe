package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playhuddle/backend/internal/auth"
	"github.com/playhuddle/backend/internal/database"
	"github.com/playhuddle/backend/internal/models"
	"github.com/playhuddle/backend/internal/util"
)

// RegisterUser creates a new account
// POST /api/v1/auth/register
func (h *Handlers) RegisterUser(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
		case errors.Is(err, auth.ErrUsernameExists):
			c.JSON(http.StatusConflict, gin.H{"error": "username_taken"})
		default:
			util.RespondInternalError(c, "Failed to register user")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// LoginUser authenticates with email and password
// POST /api/v1/auth/login
func (h *Handlers) LoginUser(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		// Do not reveal whether the email exists
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetCurrentUser returns the authenticated user's profile
// GET /api/v1/auth/me
func (h *Handlers) GetCurrentUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		util.HandleDBError(c, err, "user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetStreamToken issues a client-side GetStream token for the user
// GET /api/v1/auth/stream-token
func (h *Handlers) GetStreamToken(c *gin.Context) {
	streamUserID := c.GetString("stream_user_id")
	if streamUserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
		return
	}

	token, err := h.stream.CreateToken(streamUserID, time.Now().Add(24*time.Hour))
	if err != nil {
		util.RespondInternalError(c, "Failed to create stream token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":          token,
		"stream_user_id": streamUserID,
	})
}
