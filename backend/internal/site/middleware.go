package site

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"garden-graph/backend/internal/constants"
)

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Bool("hx", c.GetHeader(constants.HeaderRequest) != ""),
			zap.String("hx_target", c.GetHeader(constants.HeaderTarget)),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
