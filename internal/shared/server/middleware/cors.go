package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Origin, Content-Type, Accept"
	corsMaxAge       = "3600"
)

// CORS allows any origin. Preflight requests are answered with 204 without
// reaching a handler.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			Preflight(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

// Preflight writes the 204 preflight answer. It is also registered as an
// explicit OPTIONS route so the answer does not depend on middleware order.
//
// The "OK" body is best effort: net/http discards bodies on 204, so clients
// served by the HTTP listener see only the status and headers. Callers must
// not rely on it.
func Preflight(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Max-Age", corsMaxAge)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	c.Writer.WriteHeader(http.StatusNoContent)
	_, _ = c.Writer.Write([]byte("OK"))
}
