package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xeelshop/backend/config"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Port:        "8000",
			Environment: "test",
			AssetsDir:   t.TempDir(),
		},
		Proxy: config.ProxyConfig{
			Timeout:       2 * time.Second,
			RatePerSecond: 100,
			RateBurst:     100,
		},
	}
}

// setupTestRouter creates a test router with default configuration
func setupTestRouter(t *testing.T, mutate func(*config.Config)) *gin.Engine {
	t.Helper()

	cfg := testConfig(t)
	if mutate != nil {
		mutate(cfg)
	}

	handler := NewHandler(cfg, []WidgetInfo{
		{Identifier: "electronics-map", Title: "Show Electronics Map"},
		{Identifier: "electronics-shop", Title: "Open Electronics Shop"},
	})

	mcpStub := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return SetupRouter(cfg, handler, mcpStub)
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns OK", func(t *testing.T) {
		router := setupTestRouter(t, nil)

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if w.Body.String() != "OK" {
			t.Errorf("Body = %q, want OK", w.Body.String())
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(t, nil)

		methods := []string{"POST", "PUT", "DELETE", "PATCH"}

		for _, method := range methods {
			req, _ := http.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestRootEndpoint tests the server information page
func TestRootEndpoint(t *testing.T) {
	router := setupTestRouter(t, nil)

	req, _ := http.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	for _, want := range []string{"Electronics MCP Server", "/proxy-image", "electronics-map", "Show Electronics Map"} {
		if !strings.Contains(body, want) {
			t.Errorf("info page missing %q", want)
		}
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q, want text/html", w.Header().Get("Content-Type"))
	}
}

// TestProxyImageEndpoint tests the image proxy end-to-end against a stub
// upstream server
func TestProxyImageEndpoint(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("ETag", `"img-v1"`)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("pngbytes"))
		case "/untyped.jpg":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("jpgbytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer upstream.Close()

	proxyPath := func(imageURL string) string {
		return "/proxy-image?url=" + url.QueryEscape(imageURL)
	}

	t.Run("proxies image with CORS and caching headers", func(t *testing.T) {
		router := setupTestRouter(t, nil)

		req, _ := http.NewRequest("GET", proxyPath(upstream.URL+"/ok.png"), nil)
		req.Header.Set("Origin", "https://chat.openai.com")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
		}
		if w.Body.String() != "pngbytes" {
			t.Errorf("Body = %q, want upstream bytes", w.Body.String())
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
		}
		if got := w.Header().Get("Cache-Control"); got != "public, max-age=86400" {
			t.Errorf("Cache-Control = %q, want public, max-age=86400", got)
		}
		if got := w.Header().Get("ETag"); got != `"img-v1"` {
			t.Errorf("ETag = %q, want passthrough from upstream", got)
		}
	})

	t.Run("derives content type from extension", func(t *testing.T) {
		router := setupTestRouter(t, nil)

		req, _ := http.NewRequest("GET", proxyPath(upstream.URL+"/untyped.jpg"), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if got := w.Header().Get("Content-Type"); got != "image/jpeg" {
			t.Errorf("Content-Type = %q, want image/jpeg", got)
		}
	})

	t.Run("missing url parameter returns 400", func(t *testing.T) {
		router := setupTestRouter(t, nil)

		req, _ := http.NewRequest("GET", "/proxy-image", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("invalid url returns 400", func(t *testing.T) {
		router := setupTestRouter(t, nil)

		req, _ := http.NewRequest("GET", proxyPath("not-a-url"), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("upstream errors are forwarded", func(t *testing.T) {
		router := setupTestRouter(t, nil)

		req, _ := http.NewRequest("GET", proxyPath(upstream.URL+"/missing.png"), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("domain allowlist blocks other hosts", func(t *testing.T) {
		router := setupTestRouter(t, func(cfg *config.Config) {
			cfg.Proxy.AllowedDomains = []string{"images.example.com"}
		})

		req, _ := http.NewRequest("GET", proxyPath(upstream.URL+"/ok.png"), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("rate limit returns 429", func(t *testing.T) {
		router := setupTestRouter(t, func(cfg *config.Config) {
			cfg.Proxy.RatePerSecond = 1
			cfg.Proxy.RateBurst = 1
		})

		first, _ := http.NewRequest("GET", proxyPath(upstream.URL+"/ok.png"), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, first)
		if w.Code != http.StatusOK {
			t.Fatalf("first request status = %d, want %d", w.Code, http.StatusOK)
		}

		second, _ := http.NewRequest("GET", proxyPath(upstream.URL+"/ok.png"), nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, second)
		if w.Code != http.StatusTooManyRequests {
			t.Errorf("second request status = %d, want %d", w.Code, http.StatusTooManyRequests)
		}
	})

	t.Run("preflight request succeeds", func(t *testing.T) {
		router := setupTestRouter(t, nil)

		req, _ := http.NewRequest("OPTIONS", "/proxy-image", nil)
		req.Header.Set("Origin", "https://chat.openai.com")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if w.Header().Get("Access-Control-Allow-Origin") == "" {
			t.Errorf("Access-Control-Allow-Origin not set on preflight")
		}
	})
}

// TestMCPRouting tests that the protocol endpoint is mounted
func TestMCPRouting(t *testing.T) {
	router := setupTestRouter(t, nil)

	for _, method := range []string{"GET", "POST"} {
		req, _ := http.NewRequest(method, "/mcp", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusOK)
		}
	}
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic without crashing server", func(t *testing.T) {
		router := setupTestRouter(t, nil)

		// Add a test route that panics
		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		req, _ := http.NewRequest("GET", "/panic", nil)
		w := httptest.NewRecorder()

		// This should not crash the test - recovery middleware should handle it
		router.ServeHTTP(w, req)

		// Gin's default recovery returns 500
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}
