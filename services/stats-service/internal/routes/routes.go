package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tenessy0570/netrefer-api-interface/pkg/config"
	"github.com/tenessy0570/netrefer-api-interface/pkg/logger"
	"github.com/tenessy0570/netrefer-api-interface/pkg/middleware"
	"github.com/tenessy0570/netrefer-api-interface/services/stats-service/internal/handlers"
)

func SetupRoutes(router *gin.Engine, h *handlers.Handlers, cfg *config.Config, log logger.Logger) {
	router.Use(h.Metrics())

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	}
	router.Use(middleware.CORS(corsConfig))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log, "/health", "/metrics"))

	if cfg.RateLimit.Enabled {
		rateLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		router.Use(rateLimiter.Middleware())
	}

	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/btag_statistics", h.BtagStatistics)

	api := router.Group("/api/v1")
	{
		api.POST("/btag_statistics", h.BtagStatistics)
	}

	router.HandleMethodNotAllowed = true
	router.NoRoute(h.NotFound)
	router.NoMethod(h.MethodNotAllowed)
}
