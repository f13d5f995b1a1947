package mcpserver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xeelshop/backend/internal/logging"
)

// widgetMIMEType marks resources as renderable widget HTML.
const widgetMIMEType = "text/html+skybridge"

// Widget describes one renderable storefront widget: the tool that triggers
// it, the resource that serves its HTML, and the status strings shown while
// the tool runs.
type Widget struct {
	Identifier   string
	Title        string
	TemplateURI  string
	Invoking     string
	Invoked      string
	HTML         string
	ResponseText string
}

// widgetHTMLLoader reads widget bundles from the assets directory. Bundles
// are built separately and may carry a content-hash suffix.
type widgetHTMLLoader struct {
	assetsDir string
}

// Load returns the HTML for the component, trying the exact file name first
// and the newest hashed variant second.
func (l widgetHTMLLoader) Load(componentName string) (string, error) {
	exact := filepath.Join(l.assetsDir, componentName+".html")
	if data, err := os.ReadFile(exact); err == nil {
		return string(data), nil
	}

	candidates, err := filepath.Glob(filepath.Join(l.assetsDir, componentName+"-*.html"))
	if err == nil && len(candidates) > 0 {
		sort.Strings(candidates)
		// The last candidate is the newest build.
		data, err := os.ReadFile(candidates[len(candidates)-1])
		if err == nil {
			return string(data), nil
		}
	}

	return "", fmt.Errorf("widget HTML for %q not found in %s", componentName, l.assetsDir)
}

func (l widgetHTMLLoader) loadOrPlaceholder(componentName string) string {
	html, err := l.Load(componentName)
	if err != nil {
		logging.Warnw("widget HTML missing, serving placeholder",
			"component", componentName, "assets_dir", l.assetsDir)
		return fmt.Sprintf("<p>Widget %q is not built yet.</p>", componentName)
	}
	return html
}

// buildWidgets assembles the widget registry from the assets directory.
func buildWidgets(assetsDir string) []Widget {
	loader := widgetHTMLLoader{assetsDir: assetsDir}

	return []Widget{
		{
			Identifier:   "electronics-map",
			Title:        "Show Electronics Map",
			TemplateURI:  "ui://widget/electronics-map.html",
			Invoking:     "Loading electronics map",
			Invoked:      "Electronics map loaded",
			HTML:         loader.loadOrPlaceholder("electronics"),
			ResponseText: "Rendered an electronics map!",
		},
		{
			Identifier:   "electronics-carousel",
			Title:        "Show Electronics Carousel",
			TemplateURI:  "ui://widget/electronics-carousel.html",
			Invoking:     "Loading electronics carousel",
			Invoked:      "Electronics carousel loaded",
			HTML:         loader.loadOrPlaceholder("electronics-carousel"),
			ResponseText: "Rendered an electronics carousel!",
		},
		{
			Identifier:   "electronics-albums",
			Title:        "Show Electronics Album",
			TemplateURI:  "ui://widget/electronics-albums.html",
			Invoking:     "Loading electronics album",
			Invoked:      "Electronics album loaded",
			HTML:         loader.loadOrPlaceholder("electronics-albums"),
			ResponseText: "Rendered an electronics album!",
		},
		{
			Identifier:   "electronics-list",
			Title:        "Show Electronics List",
			TemplateURI:  "ui://widget/electronics-list.html",
			Invoking:     "Loading electronics list",
			Invoked:      "Electronics list loaded",
			HTML:         loader.loadOrPlaceholder("electronics-list"),
			ResponseText: "Rendered an electronics list!",
		},
		{
			Identifier:   "electronics-shop",
			Title:        "Open Electronics Shop",
			TemplateURI:  "ui://widget/electronics-shop.html",
			Invoking:     "Opening the electronics shop",
			Invoked:      "Electronics shop opened",
			HTML:         loader.loadOrPlaceholder("electronics-shop"),
			ResponseText: "Rendered the Electronics shop!",
		},
		{
			Identifier:   "product-list",
			Title:        "List Products",
			TemplateURI:  "ui://widget/product-list.html",
			Invoking:     "Fetching products",
			Invoked:      "Fetched products",
			HTML:         "<p>Product list is being rendered...</p>",
			ResponseText: "Here are the products!",
		},
		{
			Identifier:   "shopping-cart",
			Title:        "Show Shopping Cart",
			TemplateURI:  "ui://widget/shopping-cart.html",
			Invoking:     "Loading shopping cart",
			Invoked:      "Shopping cart loaded",
			HTML:         loader.loadOrPlaceholder("shopping-cart"),
			ResponseText: "Here is your shopping cart!",
		},
	}
}
