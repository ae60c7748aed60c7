package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RequestIDMiddleware generates a unique ID for each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Generate unique ID: "req_a1b2c3d4"
		requestID := "req_" + uuid.New().String()[:8]

		// Store in Gin context (accessible throughout request lifecycle)
		c.Set("request_id", requestID)

		// Return in response header for client debugging
		c.Header("X-Request-ID", requestID)

		// Continue to next middleware/handler
		c.Next()
	}
}

// slowRequestThreshold flags a completed request as slow in the log
// line. Set to the same bound CheckHealth probes are given (spec.md
// §4.1): a request that took longer than one provider health check
// budget likely spent it all inside a single adapter call.
const slowRequestThreshold = 2 * time.Second

// LoggingMiddleware logs one completion line per request, carrying the
// routing-specific fields a Handler leaves in the gin context
// (provider, failed_providers, cost) alongside the status-derived error
// taxonomy from spec.md §7: 2xx is Info, a ClientError or an
// all-providers-exhausted Failure (4xx/503) is Warn, and a 500
// CatastrophicError is Error — the same severities the router kernel
// itself uses for routing_attempt/provider_failed events.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetString("request_id")

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := log.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": latency.Milliseconds(),
			"event":      "request_completed",
		}
		if provider, ok := c.Get("provider"); ok {
			fields["provider"] = provider
		}
		if failed, ok := c.Get("failed_providers"); ok {
			fields["failed_providers"] = failed
		}
		if cost, ok := c.Get("cost"); ok {
			fields["cost"] = cost
		}
		if latency >= slowRequestThreshold {
			fields["slow_request"] = true
		}

		entry := log.WithFields(fields)
		switch {
		case status >= 500 && status != http.StatusServiceUnavailable:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request refused")
		default:
			entry.Info("request completed")
		}
	}
}

