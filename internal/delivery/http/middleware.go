package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xeelshop/backend/internal/logging"
)

// cspPolicy restricts what widget pages may load and execute. Inline scripts
// stay allowed because the server injects its own configuration script into
// every widget template.
const cspPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline' 'unsafe-eval'; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; " +
	"font-src 'self' data:; connect-src 'self' https://chat.openai.com; " +
	"frame-ancestors 'none'; base-uri 'self'; form-action 'self'"

// isProtocolPath reports whether the request belongs to the MCP transport,
// which manages its own headers.
func isProtocolPath(path string) bool {
	return strings.HasPrefix(path, "/mcp") || path == "/sse" || strings.HasPrefix(path, "/messages")
}

// CORSMiddleware handles CORS for widget assets loaded from the chat client
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProtocolPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		origin := c.Request.Header.Get("Origin")
		if allow := resolveAllowedOrigin(origin, allowedOrigins); allow != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allow)
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		// Handle preflight requests
		if c.Request.Method == http.MethodOptions {
			c.Writer.Header().Set("Access-Control-Max-Age", "86400")
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// resolveAllowedOrigin picks the Access-Control-Allow-Origin value. With no
// configured origins everything is allowed; otherwise the caller's origin is
// echoed back, which keeps dynamically assigned chat-client origins working.
func resolveAllowedOrigin(origin string, allowedOrigins []string) string {
	if len(allowedOrigins) == 0 {
		return "*"
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		// Support wildcard matching for dynamic subdomains
		if strings.HasSuffix(allowed, "*") {
			if strings.HasPrefix(origin, strings.TrimSuffix(allowed, "*")) {
				return origin
			}
		} else if origin == allowed {
			return origin
		}
	}
	return origin
}

// SecurityHeadersMiddleware adds CSP and related headers to widget responses
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProtocolPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.Writer.Header().Set("Content-Security-Policy", cspPolicy)
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Next()
	}
}

// LoggerMiddleware logs requests through the structured logger
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Infow("request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}
