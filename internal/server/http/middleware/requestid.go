package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the correlation id of a request.
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey stores the request id in gin context.
	RequestIDContextKey = "request_id"
)

// RequestID reuses an incoming X-Request-ID or assigns a fresh uuid and echoes
// it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDContextKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
