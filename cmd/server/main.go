package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/playhuddle/backend/internal/analytics"
	"github.com/playhuddle/backend/internal/auth"
	"github.com/playhuddle/backend/internal/cache"
	"github.com/playhuddle/backend/internal/database"
	"github.com/playhuddle/backend/internal/errlog"
	"github.com/playhuddle/backend/internal/handlers"
	"github.com/playhuddle/backend/internal/logger"
	"github.com/playhuddle/backend/internal/metrics"
	"github.com/playhuddle/backend/internal/middleware"
	"github.com/playhuddle/backend/internal/permissions"
	"github.com/playhuddle/backend/internal/ratelimit"
	"github.com/playhuddle/backend/internal/share"
	"github.com/playhuddle/backend/internal/stream"
	"github.com/playhuddle/backend/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Initialize structured logging
	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Huddle server starting ===")

	// Initialize database
	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	// Redis is optional; rate limiting and response caching fall back to
	// in-process state when it is absent
	redisClient, err := cache.NewRedisClient(
		os.Getenv("REDIS_HOST"),
		os.Getenv("REDIS_PORT"),
		os.Getenv("REDIS_PASSWORD"),
	)
	if err != nil {
		logger.Warn("Redis unavailable, continuing with in-process fallbacks", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Prometheus instruments
	metrics.Initialize()

	// OpenTelemetry tracing (no-op unless OTEL_ENABLED=true)
	samplingRate := 1.0
	if v := os.Getenv("OTEL_SAMPLING_RATE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			samplingRate = parsed
		}
	}
	tracerProvider, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "huddle-backend",
		Environment:  os.Getenv("ENVIRONMENT"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Enabled:      os.Getenv("OTEL_ENABLED") == "true",
		SamplingRate: samplingRate,
	})
	if err != nil {
		logger.Warn("Failed to initialize tracing, continuing without it", zap.Error(err))
	}
	if tracerProvider != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(ctx); err != nil {
				logger.Warn("Tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	// Initialize GetStream client
	streamClient, err := stream.NewClient()
	if err != nil {
		logger.FatalWithFields("Failed to initialize stream client", err)
	}

	// Initialize auth service
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService(jwtSecret, streamClient)

	// Error recorder: buffered, flushed in the background
	errRecorder := errlog.NewRecorder(database.DB)
	errRecorder.Start()
	defer errRecorder.Stop()

	// Share rate limiter with optional redis mirror
	limiterOpts := []ratelimit.Option{}
	if redisClient != nil {
		limiterOpts = append(limiterOpts, ratelimit.WithRedis(redisClient))
	}
	shareLimiter := ratelimit.New(ratelimit.ShareConfig(), limiterOpts...)
	shareLimiter.StartCleanup()
	defer shareLimiter.Stop()

	// Wire the share pipeline
	shareService := share.NewService(
		database.DB,
		share.NewStructValidator(database.DB),
		permissions.NewValidator(database.DB),
		shareLimiter,
		analytics.NewRecorder(database.DB),
		errRecorder,
		streamClient,
	)

	h := handlers.NewHandlers(streamClient, shareService, analytics.NewRecorder(database.DB), errRecorder, authService)

	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.TracingMiddleware("huddle-backend"))
	r.Use(middleware.CorrelationMiddleware())
	r.Use(middleware.SpanEnrichmentMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = []string{origins}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	// Operational endpoints
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimitSmartDefault())
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", middleware.RateLimitSmartAuth(), h.RegisterUser)
			authGroup.POST("/login", middleware.RateLimitSmartAuth(), h.LoginUser)
			authGroup.GET("/me", middleware.RequireAuth(authService), h.GetCurrentUser)
			authGroup.GET("/stream-token", middleware.RequireAuth(authService), h.GetStreamToken)
		}

		contents := api.Group("/contents")
		{
			contents.Use(middleware.RequireAuth(authService))
			invalidateListings := middleware.CacheInvalidationMiddleware(
				"response:/api/v1/contents/*", "response:/api/v1/users/*")
			contents.POST("/:id/share/friends", middleware.RateLimitSmartShare(), invalidateListings, h.ShareToFriends)
			contents.POST("/:id/share/feed", middleware.RateLimitSmartShare(), invalidateListings, h.ShareToFeed)
			contents.POST("/:id/share/groups", middleware.RateLimitSmartShare(), invalidateListings, h.ShareToGroups)
			contents.GET("/:id/shares", middleware.ResponseCacheMiddleware(30*time.Second), h.ListContentShares)
		}

		users := api.Group("/users")
		{
			users.Use(middleware.RequireAuth(authService))
			users.GET("/:id/shares", middleware.ResponseCacheMiddleware(30*time.Second), h.ListUserShares)
			users.GET("/:id/feed", h.GetUserFeed)
		}

		shares := api.Group("/shares")
		{
			shares.Use(middleware.RequireAuth(authService))
			shares.DELETE("/:id",
				middleware.CacheInvalidationMiddleware(
					"response:/api/v1/contents/*", "response:/api/v1/users/*"),
				h.DeleteShare)
		}

		feed := api.Group("/feed")
		{
			feed.Use(middleware.RequireAuth(authService))
			feed.GET("/shares", h.GetGlobalFeed)
		}

		notifications := api.Group("/notifications")
		{
			notifications.Use(middleware.RequireAuth(authService))
			notifications.GET("", h.GetNotifications)
			notifications.GET("/counts", h.GetNotificationCounts)
			notifications.POST("/read", h.MarkNotificationsRead)
			notifications.POST("/seen", h.MarkNotificationsSeen)
		}

		errorsGroup := api.Group("/errors")
		{
			errorsGroup.Use(middleware.RequireAuth(authService))
			errorsGroup.POST("", h.RecordErrors)
			errorsGroup.GET("/stats", middleware.RequireAdmin(), h.GetErrorStats)
		}

		analyticsGroup := api.Group("/analytics")
		{
			analyticsGroup.Use(middleware.RequireAuth(authService), middleware.RequireAdmin())
			analyticsGroup.GET("/shares", h.GetShareAnalytics)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Huddle backend listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("Server forced to shutdown", err)
	}

	// Drain any buffered error entries before exit
	errRecorder.Flush(ctx)

	logger.Log.Info("Server exited")
}
