package mcpserver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestWidgetHTMLLoader(t *testing.T) {
	t.Run("exact file wins over hashed variants", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "electronics.html", "<p>exact</p>")
		writeFile(t, dir, "electronics-abc123.html", "<p>hashed</p>")

		loader := widgetHTMLLoader{assetsDir: dir}
		html, err := loader.Load("electronics")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if html != "<p>exact</p>" {
			t.Errorf("html = %q, want exact file contents", html)
		}
	})

	t.Run("falls back to last hashed variant", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "shop-aaa.html", "<p>old</p>")
		writeFile(t, dir, "shop-bbb.html", "<p>new</p>")

		loader := widgetHTMLLoader{assetsDir: dir}
		html, err := loader.Load("shop")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if html != "<p>new</p>" {
			t.Errorf("html = %q, want the lexically last variant", html)
		}
	})

	t.Run("missing file yields placeholder", func(t *testing.T) {
		loader := widgetHTMLLoader{assetsDir: t.TempDir()}
		html := loader.loadOrPlaceholder("ghost")
		if !strings.Contains(html, "ghost") {
			t.Errorf("placeholder = %q, want widget name mentioned", html)
		}
	})
}

func TestBuildWidgets(t *testing.T) {
	widgets := buildWidgets(t.TempDir())
	if len(widgets) != 7 {
		t.Fatalf("len(widgets) = %d, want 7", len(widgets))
	}

	byID := make(map[string]Widget, len(widgets))
	for _, w := range widgets {
		byID[w.Identifier] = w
	}

	wantURIs := map[string]string{
		"electronics-map":      "ui://widget/electronics-map.html",
		"electronics-carousel": "ui://widget/electronics-carousel.html",
		"electronics-albums":   "ui://widget/electronics-albums.html",
		"electronics-list":     "ui://widget/electronics-list.html",
		"electronics-shop":     "ui://widget/electronics-shop.html",
		"product-list":         "ui://widget/product-list.html",
		"shopping-cart":        "ui://widget/shopping-cart.html",
	}
	for id, uri := range wantURIs {
		w, ok := byID[id]
		if !ok {
			t.Errorf("widget %q missing", id)
			continue
		}
		if w.TemplateURI != uri {
			t.Errorf("widget %q uri = %q, want %q", id, w.TemplateURI, uri)
		}
		if w.Invoking == "" || w.Invoked == "" || w.ResponseText == "" {
			t.Errorf("widget %q has empty status strings", id)
		}
	}

	if html := byID["product-list"].HTML; !strings.Contains(html, "Product list") {
		t.Errorf("product-list html = %q, want inline placeholder markup", html)
	}
}

func TestToolMeta(t *testing.T) {
	w := Widget{
		TemplateURI: "ui://widget/electronics-map.html",
		Invoking:    "Loading electronics map",
		Invoked:     "Electronics map loaded",
	}

	meta := toolMeta(w)
	if got := meta["openai/outputTemplate"]; got != w.TemplateURI {
		t.Errorf("outputTemplate = %v, want %q", got, w.TemplateURI)
	}
	if got := meta["openai/toolInvocation/invoking"]; got != w.Invoking {
		t.Errorf("invoking = %v, want %q", got, w.Invoking)
	}
	if got := meta["openai/widgetAccessible"]; got != true {
		t.Errorf("widgetAccessible = %v, want true", got)
	}
}

func TestRewriteAssetPaths(t *testing.T) {
	cases := []struct {
		name   string
		origin string
		in     string
		want   string
	}{
		{
			name: "localhost url",
			in:   `<script src="http://localhost:4444/main.js"></script>`,
			want: `<script src="/assets/main.js"></script>`,
		},
		{
			name: "localhost url already under assets",
			in:   `<link href="http://localhost:3000/assets/style.css">`,
			want: `<link href="/assets/style.css">`,
		},
		{
			name: "absolute root path",
			in:   `<script src="/bundle.js"></script>`,
			want: `<script src="/assets/bundle.js"></script>`,
		},
		{
			name:   "public origin prefixes the path",
			origin: "https://shop.example.com",
			in:     `<script src="/bundle.js"></script>`,
			want:   `<script src="https://shop.example.com/assets/bundle.js"></script>`,
		},
		{
			name:   "origin path missing assets prefix",
			origin: "https://shop.example.com",
			in:     `<script src="https://shop.example.com/bundle.js"></script>`,
			want:   `<script src="https://shop.example.com/assets/bundle.js"></script>`,
		},
		{
			name: "relative paths untouched",
			in:   `<script src="assets/main.js"></script>`,
			want: `<script src="assets/main.js"></script>`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Server{deps: Deps{PublicOrigin: tc.origin}}
			if got := s.rewriteAssetPaths(tc.in); got != tc.want {
				t.Errorf("rewriteAssetPaths() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestInjectServerURL(t *testing.T) {
	s := &Server{deps: Deps{PublicOrigin: "https://shop.example.com"}}

	t.Run("before closing head", func(t *testing.T) {
		out := s.injectServerURL("<html><head></head><body></body></html>")
		if !strings.Contains(out, "__ELECTRONICS_SERVER_URL__") {
			t.Fatal("server url script not injected")
		}
		if strings.Index(out, "__ELECTRONICS_SERVER_URL__") > strings.Index(out, "</head>") {
			t.Error("script injected after </head>")
		}
	})

	t.Run("before closing body when no head", func(t *testing.T) {
		out := s.injectServerURL("<body>content</body>")
		if strings.Index(out, "__ELECTRONICS_SERVER_URL__") > strings.Index(out, "</body>") {
			t.Error("script injected after </body>")
		}
	})

	t.Run("prepended without head or body", func(t *testing.T) {
		out := s.injectServerURL("<p>bare</p>")
		if !strings.HasPrefix(out, "<script>") {
			t.Errorf("out = %q, want script prefix", out)
		}
	})
}
