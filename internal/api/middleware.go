package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BearerAuth requires "Authorization: Bearer {secret}". An empty secret disables the check.
func BearerAuth(secret string, logger *zap.Logger) gin.HandlerFunc {
	if secret == "" {
		logger.Warn("API secret key not set, skipping authorization")
		return func(c *gin.Context) { c.Next() }
	}

	expected := "Bearer " + secret
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != expected {
			fail(c, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
