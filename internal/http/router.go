package api

import (
	stdhttp "net/http"

	h "transportdesk/internal/http/handlers"
	"transportdesk/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig is what the router needs besides the handlers.
type RouterConfig struct {
	CORSAllowedOrigins []string
	Log                *zap.Logger
}

func NewRouter(cfg RouterConfig, handlers *h.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(cfg.Log), gin.Recovery())
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	}

	if err := r.SetTrustedProxies(nil); err != nil && cfg.Log != nil {
		cfg.Log.Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"code":   "not_found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	dispatcher := middleware.RequireDispatcher(handlers.Gate)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.Health)
		api.GET("/db-check", handlers.DBCheck)

		auth := api.Group("/auth")
		auth.POST("/login", handlers.Login)
		auth.GET("/session", handlers.Session)
		auth.POST("/logout", handlers.Logout)

		requests := api.Group("/requests")
		requests.POST("", handlers.CreateRequest)
		requests.GET("", handlers.ListRequests)
		requests.GET("/:id", handlers.GetRequest)
		requests.PATCH("/:id", dispatcher, handlers.UpdateRequestStatus)
		requests.PUT("/:id/approve", dispatcher, handlers.ApproveRequest)
		requests.PUT("/:id/reject", dispatcher, handlers.RejectRequest)
		requests.DELETE("/:id", middleware.ResolveActor(handlers.Gate), handlers.DeleteRequest)
		requests.GET("/:id/trip-sheet", dispatcher, handlers.GetTripSheet)
	}

	return r
}
