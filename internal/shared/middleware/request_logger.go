package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"eventhub/pkg/logger"
)

// RequestLogger logs every request with latency and status once the
// handler chain completes.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.LogHTTPRequest(c, time.Since(start))
	}
}
