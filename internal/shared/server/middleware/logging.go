package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"warranty-copilot/internal/shared/telemetry"
)

// Context keys handlers set so request.complete can report them.
const (
	CopilotKey  = "copilot"
	SubtopicKey = "subtopic"
	PurposeKey  = "purpose"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"copilot":     c.GetString(CopilotKey),
			"subtopic":    c.GetString(SubtopicKey),
			"purpose":     c.GetString(PurposeKey),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
