package api

import (
	"context"
	"time"

	"github.com/RishiKendai/codesim/internal/config"

	"github.com/gin-gonic/gin"
)

// SetupRoutes builds the router. ctx bounds the rate limiter's sweep loop.
func SetupRoutes(
	ctx context.Context,
	cfg *config.Config,
	analyzers AnalyzerFactory,
	students StudentLister,
	status StatusStore,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	handler := NewHandler(cfg, analyzers, students, status)

	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, max(int(cfg.RateLimitRPS*2), 1))
	go rateLimiter.Run(ctx, 10*time.Minute)

	// Middleware
	router.Use(MetricsMiddleware())
	router.Use(ErrorHandlerMiddleware())

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	// API routes (with auth and rate limiting)
	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/analyze", handler.Analyze)
		api.GET("/status/:assignmentId", handler.Status)
	}

	return router
}
