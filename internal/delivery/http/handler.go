package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/xeelshop/backend/config"
	"github.com/xeelshop/backend/internal/logging"
)

// extensionContentTypes maps image file extensions to content types for
// upstream servers that answer with a non-image content type.
var extensionContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// WidgetInfo describes one widget for the server information page.
type WidgetInfo struct {
	Identifier string
	Title      string
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	allowedOrigins []string
	allowedDomains []string
	widgets        []WidgetInfo
	client         *http.Client
	limiter        *rate.Limiter
	version        string
}

// NewHandler creates a new HTTP handler
func NewHandler(cfg *config.Config, widgets []WidgetInfo) *Handler {
	return &Handler{
		allowedOrigins: cfg.Server.AllowedOrigins,
		allowedDomains: cfg.Proxy.AllowedDomains,
		widgets:        widgets,
		client: &http.Client{
			Timeout: cfg.Proxy.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.Proxy.RatePerSecond), cfg.Proxy.RateBurst),
		version: "1.0.0",
	}
}

// HealthCheck returns 200 OK for load balancers and uptime monitors
func (h *Handler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Root serves a small information page listing endpoints and widgets
func (h *Handler) Root(c *gin.Context) {
	var widgetList strings.Builder
	for _, w := range h.widgets {
		fmt.Fprintf(&widgetList, "    <li><code>%s</code> - %s</li>\n", w.Identifier, w.Title)
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Electronics MCP Server</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; max-width: 800px; margin: 40px auto; padding: 20px; line-height: 1.6; color: #333; }
        h1 { color: #2563eb; }
        code { background: #f3f4f6; padding: 2px 6px; border-radius: 4px; font-family: ui-monospace, monospace; }
        .endpoint { background: #f9fafb; padding: 15px; border-radius: 8px; margin: 15px 0; }
        .endpoint strong { color: #059669; }
    </style>
</head>
<body>
    <h1>Electronics MCP Server</h1>
    <p>Version: <code>%s</code></p>

    <h2>Available Endpoints</h2>
    <div class="endpoint"><strong>GET /</strong> - This page (server information)</div>
    <div class="endpoint"><strong>POST /mcp</strong> - MCP protocol over streamable HTTP</div>
    <div class="endpoint"><strong>GET /assets/*</strong> - Static files (HTML, JS, CSS) from the assets directory</div>
    <div class="endpoint"><strong>GET /proxy-image?url=...</strong> - Proxy for external images (resolves ORB/CORS blocking). Takes a URL-encoded <code>url</code> parameter.</div>

    <h2>Available Widgets (%d)</h2>
    <ul>
%s    </ul>
</body>
</html>`, h.version, len(h.widgets), widgetList.String())

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// ProxyImage fetches an external image and re-serves it with CORS headers.
// Browsers block cross-origin images without them (opaque response blocking),
// which breaks product thumbnails inside the chat client.
func (h *Handler) ProxyImage(c *gin.Context) {
	imageURL := c.Query("url")
	if imageURL == "" {
		logging.Warnw("image proxy request without url parameter")
		c.String(http.StatusBadRequest, "Missing 'url' parameter")
		return
	}

	parsed, err := url.Parse(imageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		logging.Warnw("image proxy request with invalid url", "url", imageURL)
		c.String(http.StatusBadRequest, "Invalid URL")
		return
	}

	if !h.domainAllowed(parsed.Host) {
		logging.Warnw("image proxy request blocked", "domain", parsed.Host)
		c.String(http.StatusForbidden, "Domain not allowed")
		return
	}

	if !h.limiter.Allow() {
		c.String(http.StatusTooManyRequests, "Too many proxy requests")
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, imageURL, nil)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid URL")
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			logging.Errorw("image proxy timeout", "url", imageURL)
			c.String(http.StatusGatewayTimeout, "Timeout while fetching image")
			return
		}
		logging.Errorw("image proxy fetch failed", "url", imageURL, "error", err)
		c.String(http.StatusBadGateway, "Failed to fetch image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Errorw("image proxy upstream error", "url", imageURL, "status", resp.StatusCode)
		c.String(resp.StatusCode, "Failed to fetch image: HTTP %d", resp.StatusCode)
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.Errorw("image proxy read failed", "url", imageURL, "error", err)
		c.String(http.StatusBadGateway, "Failed to read image")
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = contentTypeFromPath(parsed.Path)
	}

	h.setProxyCORSHeaders(c)
	c.Header("Cache-Control", "public, max-age=86400")
	if etag := resp.Header.Get("ETag"); etag != "" {
		c.Header("ETag", etag)
	}
	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		c.Header("Last-Modified", lastModified)
	}

	logging.Debugw("image proxied", "url", imageURL, "bytes", len(body))
	c.Data(http.StatusOK, contentType, body)
}

// ProxyImageOptions answers CORS preflight requests for the image proxy
func (h *Handler) ProxyImageOptions(c *gin.Context) {
	h.setProxyCORSHeaders(c)
	c.Header("Access-Control-Max-Age", "86400")
	c.Status(http.StatusOK)
}

func (h *Handler) setProxyCORSHeaders(c *gin.Context) {
	origin := c.Request.Header.Get("Origin")
	if allow := resolveAllowedOrigin(origin, h.allowedOrigins); allow != "" {
		c.Header("Access-Control-Allow-Origin", allow)
	}
	c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
}

// domainAllowed checks the host against the configured allowlist. An empty
// allowlist permits every domain.
func (h *Handler) domainAllowed(host string) bool {
	if len(h.allowedDomains) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, allowed := range h.allowedDomains {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed != "" && strings.Contains(host, allowed) {
			return true
		}
	}
	return false
}

func contentTypeFromPath(p string) string {
	if contentType, ok := extensionContentTypes[strings.ToLower(path.Ext(p))]; ok {
		return contentType
	}
	return "image/png"
}
