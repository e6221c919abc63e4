package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat/internal/logger"
)

// requestIDHeader carries the per-request correlation id.
const requestIDHeader = "X-Request-ID"

// requestLogger logs every request through the application logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Debug("[HTTP] %s %s %d %v id=%s",
			method, path, c.Writer.Status(), time.Since(start), c.GetString("request_id"))
	}
}

// requestID propagates or assigns a request id.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}
