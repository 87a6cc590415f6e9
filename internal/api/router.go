package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/metrics"
)

// NewRouter wires every endpoint onto a gin engine
func NewRouter(h *Handler, secret string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger), metrics.GinMiddleware())

	r.GET("/api/health-check", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := BearerAuth(secret, logger)

	processor := r.Group("/api/email-processor", auth)
	{
		processor.POST("", h.RunProcessor)
		processor.GET("", h.ProcessorStatus)
	}

	cm := r.Group("/api/config-manager", auth)
	{
		cm.POST("/email-account", h.AddEmailAccount)
		cm.POST("/telegram-config", h.SetNotifierConfig)
		cm.POST("/ai-config", h.SetAIConfig)
		cm.POST("/test-telegram", h.TestNotifier)
		cm.POST("/test-email", h.TestEmailAccount)
		cm.POST("/deactivate-account", h.DeactivateAccount)
		cm.POST("/cleanup", h.Cleanup)

		cm.GET("", h.SystemStatus)
		cm.GET("/status", h.SystemStatus)
		cm.GET("/accounts", h.ListAccounts)
		cm.GET("/recent-emails", h.RecentEmails)
		cm.GET("/telegram-setup", h.NotifierSetup)
		cm.GET("/ai-providers", h.AIProviders)
		cm.GET("/email-providers", h.EmailProviders)
		cm.GET("/logs", h.SystemLogs)
	}

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Endpoint not found: "+c.Request.URL.Path, nil)
	})

	return r
}
