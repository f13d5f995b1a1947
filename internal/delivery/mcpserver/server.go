package mcpserver

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xeelshop/backend/internal/domain"
	"github.com/xeelshop/backend/internal/usecase"
)

// serverName and serverVersion identify this MCP server to clients.
const (
	serverName    = "xeelshop-electronics"
	serverVersion = "1.0.0"
)

// Deps carries everything the MCP server needs to answer tool calls.
type Deps struct {
	Catalog     domain.ProductCatalog
	Payments    domain.PaymentsProvider
	Checkout    *usecase.CheckoutService
	Recommender *usecase.CrossSellRecommender
	Bundles     *usecase.BundleBuilder

	AssetsDir    string
	PromptsDir   string
	PublicOrigin string
}

// Server exposes the storefront widgets and commerce operations over MCP.
type Server struct {
	deps    Deps
	widgets []Widget
	byID    map[string]Widget
	byURI   map[string]Widget
}

// New builds the widget registry and wires every tool and resource onto a
// fresh MCP server.
func New(deps Deps) *Server {
	widgets := buildWidgets(deps.AssetsDir)

	s := &Server{
		deps:    deps,
		widgets: widgets,
		byID:    make(map[string]Widget, len(widgets)),
		byURI:   make(map[string]Widget, len(widgets)),
	}
	for _, w := range widgets {
		s.byID[w.Identifier] = w
		s.byURI[w.TemplateURI] = w
	}
	return s
}

// Widgets returns the widget registry in registration order.
func (s *Server) Widgets() []Widget {
	return s.widgets
}

// Handler returns the streamable HTTP handler serving the MCP protocol. A
// new protocol server is built per request session.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.build()
	}, nil)
}

func (s *Server) build() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	s.registerTools(server)
	s.registerResources(server)
	return server
}

// toolMeta is attached to widget tools and resources so the client knows
// which template renders the result and what to show while the tool runs.
func toolMeta(w Widget) mcp.Meta {
	return mcp.Meta{
		"openai/outputTemplate":          w.TemplateURI,
		"openai/toolInvocation/invoking": w.Invoking,
		"openai/toolInvocation/invoked":  w.Invoked,
		"openai/widgetAccessible":        true,
	}
}

func invocationMeta(w Widget) mcp.Meta {
	return mcp.Meta{
		"openai/toolInvocation/invoking": w.Invoking,
		"openai/toolInvocation/invoked":  w.Invoked,
	}
}

func boolPtr(b bool) *bool { return &b }

// readOnlyAnnotations marks widget tools as non-destructive views.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(false),
		ReadOnlyHint:    true,
	}
}

// commerceAnnotations marks payment tools, which reach out to the payment
// processor and change state.
func commerceAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(true),
		ReadOnlyHint:    false,
	}
}
