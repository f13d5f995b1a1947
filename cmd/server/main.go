package main

import (
	"context"
	"fmt"
	"time"

	"github.com/xeelshop/backend/config"
	httpDelivery "github.com/xeelshop/backend/internal/delivery/http"
	"github.com/xeelshop/backend/internal/delivery/mcpserver"
	"github.com/xeelshop/backend/internal/domain"
	"github.com/xeelshop/backend/internal/infrastructure/catalog"
	"github.com/xeelshop/backend/internal/infrastructure/payments"
	"github.com/xeelshop/backend/internal/infrastructure/store"
	"github.com/xeelshop/backend/internal/logging"
	"github.com/xeelshop/backend/internal/usecase"
)

func main() {
	logging.Init()
	defer logging.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.FatalExitf("failed to load configuration", "error", err)
	}

	logging.Infow("starting xeelshop backend",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
	)

	// Catalog database. A failed connection is not fatal: the server still
	// serves widgets, and catalog tools report the error per call.
	var productCatalog domain.ProductCatalog
	connectCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	catalogClient, err := catalog.Connect(connectCtx, cfg.Database)
	cancel()
	if err != nil {
		logging.Warnw("catalog database unreachable, starting degraded", "error", err)
		productCatalog = catalog.Unavailable{Err: err}
	} else {
		defer catalogClient.Close()
		productCatalog = catalogClient
	}

	// Payments are optional: without a Stripe key the commerce tools answer
	// with a configuration error.
	var paymentsProvider domain.PaymentsProvider
	if cfg.Stripe.SecretKey != "" {
		provider, err := payments.NewStripeProvider(cfg.Stripe.SecretKey)
		if err != nil {
			logging.Fatalw("failed to configure payments", "error", err)
		}
		paymentsProvider = provider
		logging.Infow("payments configured")
	} else {
		logging.Warnw("stripe secret key not set, payment tools disabled")
	}

	// Checkout sessions and idempotency records live in the in-memory store
	sessionStore := store.NewMemoryStore()

	checkoutService := usecase.NewCheckoutService(
		sessionStore,
		paymentsProvider,
		cfg.Sessions.TTL,
		cfg.Sessions.IdempotencyTTL,
	)

	mcpServer := mcpserver.New(mcpserver.Deps{
		Catalog:      productCatalog,
		Payments:     paymentsProvider,
		Checkout:     checkoutService,
		Recommender:  usecase.NewCrossSellRecommender(),
		Bundles:      usecase.NewBundleBuilder(),
		AssetsDir:    cfg.Server.AssetsDir,
		PromptsDir:   cfg.Server.PromptsDir,
		PublicOrigin: cfg.Server.PublicOrigin,
	})

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(cfg, widgetInfos(mcpServer))

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, mcpServer.Handler())

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logging.Infow("server listening", "addr", addr)

	if err := router.Run(addr); err != nil {
		logging.Fatalw("failed to start server", "error", err)
	}
}

func widgetInfos(s *mcpserver.Server) []httpDelivery.WidgetInfo {
	var infos []httpDelivery.WidgetInfo
	for _, w := range s.Widgets() {
		infos = append(infos, httpDelivery.WidgetInfo{
			Identifier: w.Identifier,
			Title:      w.Title,
		})
	}
	return infos
}
