package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/handymanapp/handyman-backend/internal/config"
	"github.com/handymanapp/handyman-backend/internal/http/handlers"
	"github.com/handymanapp/handyman-backend/internal/http/middleware"
	"github.com/handymanapp/handyman-backend/internal/models"
	"github.com/handymanapp/handyman-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	jobHandler *handlers.JobHandler,
	providerHandler *handlers.ProviderHandler,
	locationHandler *handlers.LocationHandler,
	adminHandler *handlers.AdminHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.GET("/ws", wsHandler.Handle)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api/v1")

	// Регистрация и вход под rate limit
	publicRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)

	authGroup := api.Group("/auth")
	authGroup.Use(publicRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	api.POST("/providers/profile", publicRateLimit, providerHandler.Register)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/auth/me", authHandler.Me)

		// Заявки заказчика
		protected.POST("/jobs", jobHandler.Create)
		protected.GET("/jobs", jobHandler.List)
		protected.GET("/jobs/search", jobHandler.Search)
		protected.GET("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.Get)
		protected.PATCH("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.Update)
		protected.DELETE("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.Cancel)
		protected.POST("/jobs/:id/images", middleware.UUIDValidator("id"), jobHandler.UploadImage)
		protected.GET("/jobs/:id/images", middleware.UUIDValidator("id"), jobHandler.ListImages)

		// Адреса
		protected.POST("/locations", locationHandler.Create)
		protected.GET("/locations", locationHandler.List)
		protected.GET("/locations/:id", middleware.UUIDValidator("id"), locationHandler.Get)

		// Кабинет исполнителя
		providerGroup := protected.Group("/providers")
		providerGroup.Use(middleware.RequireRole(models.RoleProvider, models.RoleAdmin))
		{
			providerGroup.GET("/me", providerHandler.Me)
			providerGroup.PATCH("/me", providerHandler.UpdateMe)
			providerGroup.GET("/available-jobs", providerHandler.AvailableJobs)
			providerGroup.POST("/jobs/:id/accept", middleware.UUIDValidator("id"), providerHandler.AcceptJob)
			providerGroup.POST("/jobs/:id/start", middleware.UUIDValidator("id"), providerHandler.StartJob)
			providerGroup.POST("/jobs/:id/complete", middleware.UUIDValidator("id"), providerHandler.CompleteJob)
			providerGroup.POST("/verifications", providerHandler.SubmitVerification)
			providerGroup.GET("/verifications", providerHandler.ListVerifications)
		}

		// Административные операции
		adminGroup := protected.Group("/admin")
		adminGroup.Use(middleware.RequireRole(models.RoleAdmin))
		{
			adminGroup.POST("/verifications/:id/approve", middleware.UUIDValidator("id"), adminHandler.ApproveVerification)
			adminGroup.PATCH("/providers/:id/status", middleware.UUIDValidator("id"), adminHandler.SetProviderStatus)
		}
	}

	return r
}
