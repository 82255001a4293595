// Package httpapi wires the gin routes from spec.md §4.7/§6: multipart
// enqueue endpoints, job status/download, and health, generalizing the
// teacher's gin.New()+gin.Recovery()+cors.New(...) wiring.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/pdfpipe/server/internal/apperr"
	"github.com/pdfpipe/server/internal/ratelimit"
)

const clientKeyContextKey = "client_key"

// ClientKeyMiddleware reads x-api-key once (default "anon") and stashes
// it in the gin context for the rate limiter and the queue to share.
func ClientKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("x-api-key")
		if key == "" {
			key = "anon"
		}
		c.Set(clientKeyContextKey, key)
		c.Next()
	}
}

func clientKey(c *gin.Context) string {
	if v, ok := c.Get(clientKeyContextKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "anon"
}

// RateLimitMiddleware runs before upload validation and the queue,
// refusing with 429 on exhaustion without ever touching queue state
// (spec.md §4.7).
func RateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(clientKey(c)) {
			writeError(c, apperr.New(apperr.RateLimited, "rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// writeError renders any *apperr.Coded via its mapped HTTP status, the
// single place the HTTP layer turns a Coded error into a response.
func writeError(c *gin.Context, err *apperr.Coded) {
	c.JSON(err.HTTPStatus(), gin.H{"error": err.Message, "code": err.Code})
}

func writeErrorDirect(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
