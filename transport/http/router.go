package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/openclave/walletauth/service"
)

// RouterOptions configures the optional surfaces.
type RouterOptions struct {
	Metrics bool
	// Degraded reports whether the challenge store lost its primary tier.
	Degraded func() bool
}

// SetupRouter builds the gin router.
func SetupRouter(authService *service.AuthService, log *zap.Logger, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	handlers := NewAuthHandlers(authService, log)

	auth := router.Group("/auth")
	{
		auth.POST("/challenge", handlers.Challenge)
		auth.POST("/verify", handlers.Verify)
	}

	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/me", handlers.Me)
		api.GET("/authorize", handlers.Authorize)
	}

	router.GET("/healthz", func(c *gin.Context) {
		degraded := opts.Degraded != nil && opts.Degraded()
		c.JSON(http.StatusOK, gin.H{"status": "ok", "storeDegraded": degraded})
	})

	if opts.Metrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return router
}
