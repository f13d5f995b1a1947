package http

import (
	std "net/http"

	"github.com/gin-gonic/gin"

	"github.com/xeelshop/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, mcpHandler std.Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(SecurityHeadersMiddleware())

	// Server information and health
	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)

	// Widget bundles (JS, CSS, HTML templates)
	router.Static("/assets", cfg.Server.AssetsDir)

	// Image proxy for product thumbnails
	router.GET("/proxy-image", handler.ProxyImage)
	router.OPTIONS("/proxy-image", handler.ProxyImageOptions)

	// MCP protocol endpoint
	router.Any("/mcp", gin.WrapH(mcpHandler))
	router.Any("/mcp/*path", gin.WrapH(mcpHandler))

	return router
}
