package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notifyhub/pkg/metrics"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	notificationHandler *NotificationHandler,
	wsHandler *WSHandler,
	authService AuthVerifier,
) *Router {
	r := gin.Default()
	r.Use(metricsMiddleware())

	// Public
	r.POST("/login", authHandler.Login)
	r.GET("/ws", wsHandler.Serve)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(authService))
	{
		auth.POST("/notifications", notificationHandler.Create)
		auth.GET("/users/:id/notifications", notificationHandler.ListForUser)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
