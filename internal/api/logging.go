package api

import (
	"time"

	"alcyxob/ai-reports/internal/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request after the handler chain ran.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kvs := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"remote", c.ClientIP(),
		}
		if id, err := getUserIDFromContext(c); err == nil {
			kvs = append(kvs, "user_id", id.String())
		}
		if len(c.Errors) > 0 {
			kvs = append(kvs, "errors", c.Errors.String())
		}

		if c.Writer.Status() >= 500 {
			log.Warn("request", kvs...)
			return
		}
		log.Info("request", kvs...)
	}
}
