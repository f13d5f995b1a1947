package mcpserver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xeelshop/backend/internal/logging"
)

// Widget bundles reference their JS and CSS through a mix of dev-server URLs
// and root-relative paths. Every one of them must resolve against /assets/ on
// this server (or against the public origin when one is configured).
var (
	localhostAssetPattern = regexp.MustCompile(`(src|href)=["']http://localhost:\d+/(?:assets/)?([^"']+\.(?:js|css))["']`)
	absoluteAssetPattern  = regexp.MustCompile(`(src|href)=["']/([^"']+\.(?:js|css))["']`)
)

func (s *Server) registerResources(server *mcp.Server) {
	for _, w := range s.widgets {
		widget := w
		server.AddResource(&mcp.Resource{
			URI:         widget.TemplateURI,
			Name:        widget.Title,
			Title:       widget.Title,
			Description: fmt.Sprintf("%s widget markup", widget.Title),
			MIMEType:    widgetMIMEType,
			Meta:        toolMeta(widget),
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			html := s.renderWidgetHTML(widget)
			logging.Debugw("resource read", "uri", widget.TemplateURI, "bytes", len(html))
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{
						URI:      widget.TemplateURI,
						MIMEType: widgetMIMEType,
						Text:     html,
						Meta:     toolMeta(widget),
					},
				},
			}, nil
		})
	}
}

// renderWidgetHTML prepares a widget template for delivery: asset references
// are rewritten to this server and the public origin is injected so the
// frontend can route image proxy requests back here.
func (s *Server) renderWidgetHTML(widget Widget) string {
	html := widget.HTML
	html = s.rewriteAssetPaths(html)
	return s.injectServerURL(html)
}

func (s *Server) rewriteAssetPaths(html string) string {
	fix := func(match string, pattern *regexp.Regexp) string {
		groups := pattern.FindStringSubmatch(match)
		attr, path := groups[1], groups[2]
		path = strings.TrimPrefix(path, "/")
		if !strings.HasPrefix(path, "assets/") {
			path = "assets/" + path
		}
		if s.deps.PublicOrigin != "" {
			return fmt.Sprintf(`%s="%s/%s"`, attr, s.deps.PublicOrigin, path)
		}
		return fmt.Sprintf(`%s="/%s"`, attr, path)
	}

	html = localhostAssetPattern.ReplaceAllStringFunc(html, func(m string) string {
		return fix(m, localhostAssetPattern)
	})
	html = absoluteAssetPattern.ReplaceAllStringFunc(html, func(m string) string {
		return fix(m, absoluteAssetPattern)
	})

	if s.deps.PublicOrigin != "" {
		originPattern, err := regexp.Compile(
			`(src|href)=["']` + regexp.QuoteMeta(s.deps.PublicOrigin) + `/([^"']+\.(?:js|css))["']`)
		if err == nil {
			// Rewriting an already-correct origin/assets/ path is a no-op,
			// so the pattern does not need to exclude it.
			html = originPattern.ReplaceAllStringFunc(html, func(m string) string {
				return fix(m, originPattern)
			})
		}
	}
	return html
}

func (s *Server) injectServerURL(html string) string {
	script := fmt.Sprintf(`<script>
    if (typeof window !== 'undefined') {
      window.__ELECTRONICS_SERVER_URL__ = %q;
    }
    </script>`, s.deps.PublicOrigin)

	switch {
	case strings.Contains(html, "</head>"):
		return strings.Replace(html, "</head>", script+"\n</head>", 1)
	case strings.Contains(html, "</body>"):
		return strings.Replace(html, "</body>", script+"\n</body>", 1)
	default:
		return script + "\n" + html
	}
}
