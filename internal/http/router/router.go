package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/findperson-backend/internal/config"
	"github.com/ignatzorin/findperson-backend/internal/http/handlers"
	"github.com/ignatzorin/findperson-backend/internal/http/middleware"
	"github.com/ignatzorin/findperson-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	reportHandler *handlers.ReportHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	auth := middleware.AuthMiddleware(tokenManager)
	createRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)

	reports := api.Group("/reports")
	{
		// Статические пути регистрируются раньше параметризованного :id.
		reports.GET("", reportHandler.ListMissing)
		reports.GET("/found", reportHandler.ListFound)
		reports.GET("/nearme", reportHandler.Near)
		reports.GET("/myreports", auth, reportHandler.ListMine)
		reports.POST("", auth, createRateLimit, reportHandler.Create)

		if cfg.Env == "development" {
			reports.POST("/regeocode", auth, reportHandler.Regeocode)
		}

		idValidated := middleware.ObjectIDValidator("id")
		reports.GET("/:id", idValidated, reportHandler.Get)
		reports.PUT("/:id", auth, idValidated, reportHandler.Update)
		reports.PUT("/:id/status", auth, idValidated, reportHandler.SetStatus)
		reports.DELETE("/:id", auth, idValidated, reportHandler.Delete)
	}

	api.GET("/ws", wsHandler.Handle)

	return r
}
