package routes

import (
	"github.com/gin-gonic/gin"

	"symptom-checker-server/internal/handlers"
	"symptom-checker-server/internal/middleware"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Health   *handlers.HealthHandler
	Analyze  *handlers.AnalyzeHandler
	Evaluate *handlers.EvaluateHandler
	History  *handlers.HistoryHandler
	Auth     *handlers.AuthHandler
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, h Handlers, jwtSecret string) {
	// Simple health check endpoint
	router.GET("/health", h.Health.Health)

	api := router.Group("/api")
	api.GET("/test", h.Health.Test)

	// Anonymous callers are recorded as the local user
	api.POST("/analyze", middleware.OptionalAuthMiddleware(jwtSecret), h.Analyze.Analyze)
	api.POST("/evaluate/llm", h.Evaluate.EvaluateLLM)

	historyRoutes := api.Group("/history")
	historyRoutes.Use(middleware.OptionalAuthMiddleware(jwtSecret))
	{
		historyRoutes.GET("", h.History.List)
		historyRoutes.GET("/:id", h.History.Get)
		historyRoutes.DELETE("", h.History.Clear)
	}

	if h.Auth == nil {
		return
	}
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.POST("/refresh", h.Auth.RefreshToken)
	}

	private := api.Group("/auth")
	private.Use(middleware.AuthMiddleware(jwtSecret))
	{
		private.POST("/logout", h.Auth.Logout)
		private.GET("/profile", h.Auth.GetProfile)
		private.PUT("/profile", h.Auth.UpdateProfile)
	}
}
