package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"prepnotify/internal/config"
	"prepnotify/internal/domain"
	"prepnotify/internal/http/controller"
	"prepnotify/internal/http/middleware"
)

func NewRouter(cfg *config.Config, handler *controller.Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		otelgin.Middleware(cfg.OTELServiceName),
		middleware.ZapLogger(logger),
		middleware.ZapRecovery(logger),
	)

	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/notifications", middleware.JWTAuth(cfg.JWTSecret))
	api.GET("", handler.ListNotifications)
	api.GET("/unread-count", handler.UnreadCount)
	api.PUT("/read-all", handler.MarkAllRead)
	api.PUT("/:id/read", handler.MarkRead)
	api.GET("/stream", handler.Stream)
	api.GET("/ws", handler.WebSocket)

	admin := api.Group("", middleware.RequireRole(domain.RoleAdmin))
	admin.POST("", handler.CreateNotification)
	admin.POST("/publish", handler.PublishNotification)

	return router
}
