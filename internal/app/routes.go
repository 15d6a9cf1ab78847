package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pawlink/core/internal/middleware"
	"github.com/pawlink/core/internal/modules/review"
	"github.com/pawlink/core/internal/pkg/response"
)

func (a *App) registerRoutes() {
	r := a.router
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "pawlink-core",
		"version": "1.0.0",
	}

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := a.db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.OptionalAuth())

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })

	review.NewHandler(a.reviewSvc).RegisterRoutes(api, authMW)
}
