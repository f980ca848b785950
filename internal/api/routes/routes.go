package routes

import (
	"sessionrecorder/backend/internal/api/handlers"
	"sessionrecorder/backend/internal/api/middleware"
	"sessionrecorder/backend/internal/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode == gin.ReleaseMode || cfg.Server.Mode == gin.TestMode {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware())
	router.Use(gin.Recovery())

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no auth required)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", handlers.Login)
			auth.POST("/register", handlers.Register)
		}

		// Health check
		v1.GET("/health", handlers.HealthCheck)

		// WebSocket endpoint (no auth middleware for WebSocket)
		v1.GET("/ws/recording", handlers.RecordingWebSocket)

		// Protected routes (auth required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/auth/me", handlers.Me)
			protected.GET("/devices", handlers.GetDevices)

			// Live recording sessions
			recording := protected.Group("/recording")
			{
				recording.POST("/start", handlers.StartRecording)
				recording.POST("/stop", handlers.StopRecording)
				recording.GET("/status", handlers.GetRecordingStatus)
			}

			// Stored recordings and script generation
			recordings := protected.Group("/recordings")
			{
				recordings.GET("", handlers.GetRecordings)
				recordings.GET("/:session_id", handlers.GetRecording)
				recordings.DELETE("/:session_id", handlers.DeleteRecording)
				recordings.POST("/:session_id/generate", handlers.GenerateScripts)
				recordings.GET("/:session_id/download", handlers.DownloadScript)
				recordings.GET("/:session_id/log", handlers.DownloadActionLog)
			}
		}
	}

	return router
}
