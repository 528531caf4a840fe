package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playhuddle/backend/internal/analytics"
	"github.com/playhuddle/backend/internal/auth"
	"github.com/playhuddle/backend/internal/cache"
	"github.com/playhuddle/backend/internal/database"
	"github.com/playhuddle/backend/internal/errlog"
	"github.com/playhuddle/backend/internal/share"
	"github.com/playhuddle/backend/internal/stream"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	stream       stream.StreamClientInterface
	shareService *share.Service
	analytics    *analytics.Recorder
	errors       *errlog.Recorder
	authService  auth.AuthServiceInterface
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	streamClient stream.StreamClientInterface,
	shareService *share.Service,
	analyticsRecorder *analytics.Recorder,
	errorRecorder *errlog.Recorder,
	authService auth.AuthServiceInterface,
) *Handlers {
	return &Handlers{
		stream:       streamClient,
		shareService: shareService,
		analytics:    analyticsRecorder,
		errors:       errorRecorder,
		authService:  authService,
	}
}

// Health reports service and dependency status
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	status := gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	dbStatus := "ok"
	if database.DB == nil {
		dbStatus = "uninitialized"
	} else if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "unreachable"
	}
	status["database"] = dbStatus

	redisStatus := "ok"
	if rc := cache.GetRedisClient(); rc == nil {
		redisStatus = "disabled"
	} else if err := rc.Ping(c.Request.Context()); err != nil {
		redisStatus = "unreachable"
	}
	status["redis"] = redisStatus

	code := http.StatusOK
	if dbStatus == "unreachable" {
		code = http.StatusServiceUnavailable
		status["status"] = "degraded"
	}

	c.JSON(code, status)
}
