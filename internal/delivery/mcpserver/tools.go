package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xeelshop/backend/internal/domain"
	"github.com/xeelshop/backend/internal/logging"
	"github.com/xeelshop/backend/internal/usecase"
)

// maxCarouselProducts caps the carousel when a category filter is applied.
// The cap is a maximum, never a reason to pad with unrelated products.
const maxCarouselProducts = 6

// emptyArgs is the input type of tools that take no parameters.
type emptyArgs struct{}

// widgetArgs is the input of catalog-backed widget tools. Every field is
// optional.
type widgetArgs struct {
	Category    string   `json:"category,omitempty" jsonschema:"category filter, e.g. 'Video & TV', 'tv', 'Informatica', 'Audio'"`
	SizeInches  int      `json:"size_inches,omitempty" jsonschema:"preferred screen size in inches"`
	TargetPrice float64  `json:"target_price,omitempty" jsonschema:"preferred price in major units"`
	MaxPrice    float64  `json:"max_price,omitempty" jsonschema:"maximum acceptable price in major units"`
	MinPrice    float64  `json:"min_price,omitempty" jsonschema:"minimum acceptable price in major units"`
	Keywords    []string `json:"keywords,omitempty" jsonschema:"free-text keywords to bias the ranking"`
}

func (a widgetArgs) criteria() domain.Criteria {
	return domain.Criteria{
		SizeInches:  a.SizeInches,
		TargetPrice: a.TargetPrice,
		MaxPrice:    a.MaxPrice,
		MinPrice:    a.MinPrice,
		Keywords:    a.Keywords,
	}
}

type crossSellArgs struct {
	CartItems  []domain.CartItem `json:"cart_items" jsonschema:"products currently in the cart"`
	MaxResults int               `json:"max_results,omitempty" jsonschema:"maximum number of suggestions (1-8, default 8)"`
}

type solutionBundleArgs struct {
	Goal            string `json:"goal" jsonschema:"shopping goal, e.g. 'home theater'"`
	PricePreference string `json:"price_preference,omitempty" jsonschema:"'low' or 'high', defaults to low"`
}

type checkoutItemArgs struct {
	Name            string  `json:"name" jsonschema:"product name"`
	Quantity        int     `json:"quantity,omitempty" jsonschema:"quantity, defaults to 1"`
	UnitAmountMajor float64 `json:"unit_amount_major" jsonschema:"unit price in major units, e.g. 10.50"`
	Description     string  `json:"description,omitempty" jsonschema:"optional line description"`
}

type hostedCheckoutArgs struct {
	Items          []checkoutItemArgs `json:"items" jsonschema:"cart lines to pay for"`
	Currency       string             `json:"currency" jsonschema:"ISO currency code, e.g. 'eur'"`
	SuccessURL     string             `json:"success_url" jsonschema:"redirect after successful payment"`
	CancelURL      string             `json:"cancel_url" jsonschema:"redirect after cancelled payment"`
	CustomerEmail  string             `json:"customer_email,omitempty" jsonschema:"optional customer email"`
	BillingDetails map[string]string  `json:"billing_details,omitempty" jsonschema:"optional billing details, stored as metadata"`
	Metadata       map[string]string  `json:"metadata,omitempty" jsonschema:"optional metadata"`
}

type checkoutCreateArgs struct {
	Items              []checkoutItemArgs `json:"items" jsonschema:"cart lines with prices in major units"`
	Currency           string             `json:"currency" jsonschema:"ISO currency code, e.g. 'eur'"`
	BuyerEmail         string             `json:"buyer_email,omitempty" jsonschema:"optional buyer email"`
	PromoCode          string             `json:"promo_code,omitempty" jsonschema:"optional promo code"`
	SharedPaymentToken string             `json:"shared_payment_token,omitempty" jsonschema:"optional demo shared payment token"`
	IdempotencyKey     string             `json:"idempotency_key,omitempty" jsonschema:"optional idempotency key"`
}

type checkoutUpdateArgs struct {
	SessionID string             `json:"session_id" jsonschema:"checkout session id"`
	Items     []checkoutItemArgs `json:"items,omitempty" jsonschema:"replacement cart lines"`
	Currency  string             `json:"currency,omitempty" jsonschema:"replacement currency"`
	PromoCode *string            `json:"promo_code,omitempty" jsonschema:"replacement promo code"`
}

type checkoutCompleteArgs struct {
	SessionID      string `json:"session_id" jsonschema:"checkout session id"`
	IdempotencyKey string `json:"idempotency_key,omitempty" jsonschema:"optional idempotency key"`
}

type createPaymentIntentArgs struct {
	AmountMinor        int64  `json:"amount_minor" jsonschema:"amount in minor units, e.g. cents"`
	Currency           string `json:"currency" jsonschema:"ISO currency code"`
	BuyerEmail         string `json:"buyer_email" jsonschema:"buyer email for the receipt"`
	SharedPaymentToken string `json:"shared_payment_token,omitempty" jsonschema:"optional demo shared payment token"`
}

type confirmPaymentIntentArgs struct {
	PaymentIntentID string `json:"payment_intent_id" jsonschema:"payment intent id to confirm"`
}

func toCheckoutItems(items []checkoutItemArgs) []domain.CheckoutItem {
	out := make([]domain.CheckoutItem, 0, len(items))
	for _, item := range items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		out = append(out, domain.CheckoutItem{
			Name:            item.Name,
			Quantity:        quantity,
			UnitAmountMajor: item.UnitAmountMajor,
			Description:     item.Description,
		})
	}
	return out
}

func textResult(text string, meta mcp.Meta) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		Meta:    meta,
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

var widgetDescriptions = map[string]string{
	"electronics-map": "Mostra una mappa interattiva dei negozi di elettronica. " +
		"Usa questo tool quando l'utente chiede di vedere la posizione dei negozi o di visualizzare " +
		"una mappa interattiva. Restituisce un widget HTML con una mappa cliccabile.",
	"electronics-carousel": "Mostra un carosello interattivo di prodotti elettronici (massimo 6 prodotti). " +
		"Usa questo tool quando l'utente vuole sfogliare prodotti in formato carosello. Puoi filtrare " +
		"per categoria usando il parametro 'category' (es. 'Video & TV', 'tv', 'Informatica', 'Audio'). " +
		"Restituisce un widget HTML con un carosello navigabile.",
	"electronics-albums": "Mostra una galleria di prodotti elettronici con visualizzazione a album. " +
		"Usa questo tool quando l'utente chiede di vedere una galleria di prodotti in formato album. " +
		"Puoi filtrare per categoria usando il parametro 'category' (es. 'Video & TV', 'tv', 'Informatica', 'Audio'). " +
		"Restituisce un widget HTML con una galleria interattiva.",
	"electronics-list": "Mostra una lista di prodotti elettronici. " +
		"Usa questo tool quando l'utente chiede di vedere un elenco di prodotti. Puoi filtrare per categoria " +
		"usando il parametro 'category' (es. 'Video & TV', 'tv', 'Informatica', 'Audio'). " +
		"Restituisce un widget HTML con una lista formattata di prodotti.",
	"electronics-shop": "Apre il negozio elettronico completo con funzionalità di shopping. " +
		"Usa questo tool quando l'utente vuole accedere al negozio completo o iniziare lo shopping. " +
		"Restituisce un widget HTML con l'interfaccia completa del negozio.",
	"product-list": "Recupera e mostra la lista completa di prodotti elettronici dal database remoto. " +
		"Usa questo tool quando l'utente chiede di vedere tutti i prodotti disponibili o il catalogo completo. " +
		"Puoi filtrare per categoria usando il parametro 'category'. Restituisce dati strutturati JSON con i " +
		"prodotti, inclusi nome, prezzo, descrizione e immagini.",
	"shopping-cart": "Mostra il carrello della spesa con i prodotti che l'utente ha aggiunto tramite i pulsanti " +
		"'Aggiungi al carrello' nei vari widget. Usalo quando l'utente chiede di vedere il carrello o verificare " +
		"cosa ha aggiunto. Restituisce un widget HTML interattivo per modificare quantità e procedere al checkout.",
}

func (s *Server) registerTools(server *mcp.Server) {
	s.registerWidgetTools(server)
	s.registerInstructionsTool(server)
	s.registerRecommendationTools(server)
	s.registerCheckoutTools(server)
}

// fetchProducts loads the catalog and applies the optional category filter.
func (s *Server) fetchProducts(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := s.deps.Catalog.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}
	if category != "" {
		products = usecase.FilterByCategory(products, category)
	}
	return products, nil
}

func (s *Server) registerWidgetTools(server *mcp.Server) {
	for _, w := range s.widgets {
		widget := w
		description := widgetDescriptions[widget.Identifier]
		if description == "" {
			description = widget.Title
		}
		tool := &mcp.Tool{
			Name:        widget.Identifier,
			Title:       widget.Title,
			Description: description,
			Meta:        toolMeta(widget),
			Annotations: readOnlyAnnotations(),
		}

		switch widget.Identifier {
		case "product-list":
			mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args widgetArgs) (*mcp.CallToolResult, any, error) {
				products, err := s.fetchProducts(ctx, args.Category)
				if err != nil {
					logging.Errorw("tool failed", "tool", widget.Identifier, "error", err)
					return errorResult(fmt.Sprintf("Error fetching products: %v", err)), nil, nil
				}
				logging.Infow("tool completed", "tool", widget.Identifier, "products", len(products))
				return textResult(widget.ResponseText, invocationMeta(widget)),
					map[string]any{"products": products}, nil
			})

		case "electronics-albums":
			mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args widgetArgs) (*mcp.CallToolResult, any, error) {
				products, err := s.fetchProducts(ctx, args.Category)
				if err != nil {
					logging.Errorw("tool failed", "tool", widget.Identifier, "error", err)
					return errorResult(fmt.Sprintf("Error fetching products: %v", err)), nil, nil
				}
				products = usecase.RankProducts(products, args.criteria())
				albums := usecase.ToAlbums(products)
				logging.Infow("tool completed", "tool", widget.Identifier, "albums", len(albums))
				return textResult(widget.ResponseText, invocationMeta(widget)),
					map[string]any{"albums": albums}, nil
			})

		case "electronics-map", "electronics-carousel", "electronics-list":
			mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args widgetArgs) (*mcp.CallToolResult, any, error) {
				products, err := s.fetchProducts(ctx, args.Category)
				if err != nil {
					logging.Errorw("tool failed", "tool", widget.Identifier, "error", err)
					return errorResult(fmt.Sprintf("Error fetching products: %v", err)), nil, nil
				}
				products = usecase.FilterByStrictType(products, args.Keywords)
				if widget.Identifier == "electronics-carousel" && args.Category != "" &&
					len(products) > maxCarouselProducts {
					products = products[:maxCarouselProducts]
				}
				products = usecase.RankProducts(products, args.criteria())
				places := usecase.ToPlaces(products)
				logging.Infow("tool completed", "tool", widget.Identifier, "places", len(places))
				return textResult(widget.ResponseText, invocationMeta(widget)),
					map[string]any{"places": places}, nil
			})

		default:
			// electronics-shop and shopping-cart render purely client-side.
			mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args widgetArgs) (*mcp.CallToolResult, any, error) {
				logging.Infow("tool completed", "tool", widget.Identifier)
				return textResult(widget.ResponseText, invocationMeta(widget)),
					map[string]any{}, nil
			})
		}
	}
}

func (s *Server) registerInstructionsTool(server *mcp.Server) {
	tool := &mcp.Tool{
		Name:  "get_instructions",
		Title: "Get Instructions",
		Description: "Restituisce il contenuto testuale dei prompt developer attualmente utilizzati dal server. " +
			"Include prompts/developer_core.md e prompts/runtime_context.md. Non include il system prompt.",
		Annotations: readOnlyAnnotations(),
	}
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args emptyArgs) (*mcp.CallToolResult, any, error) {
		corePath := filepath.Join(s.deps.PromptsDir, "developer_core.md")
		runtimePath := filepath.Join(s.deps.PromptsDir, "runtime_context.md")

		var missing []string
		core, err := os.ReadFile(corePath)
		if err != nil {
			missing = append(missing, corePath)
		}
		runtime, err := os.ReadFile(runtimePath)
		if err != nil {
			missing = append(missing, runtimePath)
		}
		if len(missing) > 0 {
			logging.Errorw("developer prompts missing", "paths", missing)
			return errorResult("Developer prompt file(s) not found: " + strings.Join(missing, ", ")), nil, nil
		}

		instructions := "## developer_core.md\n" + string(core) +
			"\n\n## runtime_context.md\n" + string(runtime)
		return textResult(instructions, nil), map[string]any{}, nil
	})
}

func (s *Server) registerRecommendationTools(server *mcp.Server) {
	crossSell := &mcp.Tool{
		Name:  "cross_sell_recommendations",
		Title: "Cross-sell Recommendations",
		Description: "Genera suggerimenti di cross-selling per il carrello in base alle categorie " +
			"dei prodotti presenti e alle regole business predefinite. Restituisce una lista " +
			"di accessori consigliati con SKU, nome, prezzo e tags.",
		Annotations: readOnlyAnnotations(),
	}
	mcp.AddTool(server, crossSell, func(ctx context.Context, req *mcp.CallToolRequest, args crossSellArgs) (*mcp.CallToolResult, any, error) {
		if len(args.CartItems) == 0 {
			return errorResult("cart_items must not be empty"), nil, nil
		}

		products, err := s.deps.Catalog.FetchProducts(ctx)
		if err != nil {
			logging.Warnw("catalog unavailable, using fallback accessories", "error", err)
			products = nil
		}
		maxResults := usecase.ClampCrossSellResults(args.MaxResults)
		suggestions := s.deps.Recommender.Recommend(args.CartItems, products, maxResults)
		return textResult("Cross-sell suggestions generated.", nil),
			map[string]any{"suggestions": suggestions}, nil
	})

	bundle := &mcp.Tool{
		Name:  "solution_bundle_recommendations",
		Title: "Solution Bundle Recommendations",
		Description: "Crea un bundle soluzione per un obiettivo (es. home theater) scegliendo " +
			"prodotti core dal catalogo e aggiungendo suggerimenti cross-sell.",
		Meta:        toolMeta(s.byID["electronics-list"]),
		Annotations: readOnlyAnnotations(),
	}
	mcp.AddTool(server, bundle, func(ctx context.Context, req *mcp.CallToolRequest, args solutionBundleArgs) (*mcp.CallToolResult, any, error) {
		products, err := s.deps.Catalog.FetchProducts(ctx)
		if err != nil {
			return errorResult(fmt.Sprintf("Error fetching products: %v", err)), nil, nil
		}
		if len(products) == 0 {
			return errorResult("Nessun prodotto disponibile nel catalogo."), nil, nil
		}

		result, err := s.deps.Bundles.Build(args.Goal, args.PricePreference, products)
		if err != nil {
			logging.Warnw("solution bundle rejected", "goal", args.Goal, "error", err)
			return errorResult(err.Error()), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Solution bundle generated."}},
			Meta:    invocationMeta(s.byID["electronics-list"]),
		}, result, nil
	})
}

func (s *Server) registerCheckoutTools(server *mcp.Server) {
	hosted := &mcp.Tool{
		Name:  "create_checkout_session",
		Title: "Create Checkout Session",
		Description: "Crea una Checkout Session ospitata per completare il pagamento del carrello. " +
			"Usa questo tool quando l'utente decide di acquistare e vuoi generare il link di checkout. " +
			"Richiede gli articoli del carrello con prezzi in major unit, la valuta, e gli URL di ritorno " +
			"(success/cancel). Restituisce l'URL di checkout.",
		Annotations: commerceAnnotations(),
	}
	mcp.AddTool(server, hosted, func(ctx context.Context, req *mcp.CallToolRequest, args hostedCheckoutArgs) (*mcp.CallToolResult, any, error) {
		if s.deps.Payments == nil {
			return errorResult("Payments are not configured. Set the Stripe secret key."), nil, nil
		}
		if len(args.Items) == 0 {
			return errorResult("items must not be empty"), nil, nil
		}

		checkout, err := s.deps.Payments.CreateHostedCheckout(ctx, domain.HostedCheckoutRequest{
			Items:          toCheckoutItems(args.Items),
			Currency:       args.Currency,
			SuccessURL:     args.SuccessURL,
			CancelURL:      args.CancelURL,
			CustomerEmail:  args.CustomerEmail,
			BillingDetails: args.BillingDetails,
			Metadata:       args.Metadata,
		})
		if err != nil {
			logging.Errorw("hosted checkout failed", "error", err)
			return errorResult(fmt.Sprintf("Error creating checkout session: %v", err)), nil, nil
		}
		return textResult("Checkout session creata con successo.", nil), checkout, nil
	})

	create := &mcp.Tool{
		Name:  "checkout_create_session",
		Title: "Checkout Create Session",
		Description: "Crea una sessione di checkout in stile ACP e genera un payment intent. " +
			"Accetta prezzi in major unit e restituisce id sessione, totali e payment_intent_id.",
		Annotations: commerceAnnotations(),
	}
	mcp.AddTool(server, create, func(ctx context.Context, req *mcp.CallToolRequest, args checkoutCreateArgs) (*mcp.CallToolResult, any, error) {
		cart := domain.CheckoutCart{Items: toCheckoutItems(args.Items), Currency: args.Currency}
		session, err := s.deps.Checkout.CreateSession(ctx, cart,
			args.BuyerEmail, args.PromoCode, args.SharedPaymentToken, args.IdempotencyKey)
		if err != nil {
			logging.Errorw("checkout create failed", "error", err)
			return errorResult(err.Error()), nil, nil
		}
		return textResult("Checkout session created.", nil), session, nil
	})

	update := &mcp.Tool{
		Name:        "checkout_update_session",
		Title:       "Checkout Update Session",
		Description: "Aggiorna una sessione di checkout (items/currency/promo) e ricalcola i totali.",
		Annotations: commerceAnnotations(),
	}
	mcp.AddTool(server, update, func(ctx context.Context, req *mcp.CallToolRequest, args checkoutUpdateArgs) (*mcp.CallToolResult, any, error) {
		var items []domain.CheckoutItem
		if args.Items != nil {
			items = toCheckoutItems(args.Items)
		}
		session, err := s.deps.Checkout.UpdateSession(ctx, args.SessionID, usecase.CheckoutUpdate{
			Items:     items,
			Currency:  args.Currency,
			PromoCode: args.PromoCode,
		})
		if err != nil {
			logging.Warnw("checkout update failed", "session_id", args.SessionID, "error", err)
			return errorResult(err.Error()), nil, nil
		}
		return textResult("Checkout session updated.", nil), session, nil
	})

	complete := &mcp.Tool{
		Name:        "checkout_complete_session",
		Title:       "Checkout Complete Session",
		Description: "Completa una sessione di checkout confermando il payment intent associato.",
		Annotations: commerceAnnotations(),
	}
	mcp.AddTool(server, complete, func(ctx context.Context, req *mcp.CallToolRequest, args checkoutCompleteArgs) (*mcp.CallToolResult, any, error) {
		session, err := s.deps.Checkout.CompleteSession(ctx, args.SessionID, args.IdempotencyKey)
		if err != nil {
			logging.Errorw("checkout complete failed", "session_id", args.SessionID, "error", err)
			return errorResult(err.Error()), nil, nil
		}
		return textResult("Checkout session completed.", nil), session, nil
	})

	createIntent := &mcp.Tool{
		Name:  "create_payment_intent",
		Title: "Create Payment Intent",
		Description: "Crea un payment intent (solo carte) e supporta SPT demo mappati a payment method " +
			"di test. Restituisce id, client_secret e status.",
		Annotations: commerceAnnotations(),
	}
	mcp.AddTool(server, createIntent, func(ctx context.Context, req *mcp.CallToolRequest, args createPaymentIntentArgs) (*mcp.CallToolResult, any, error) {
		if s.deps.Payments == nil {
			return errorResult("Payments are not configured. Set the Stripe secret key."), nil, nil
		}
		if args.AmountMinor <= 0 {
			return errorResult("amount_minor must be positive"), nil, nil
		}
		intent, err := s.deps.Payments.CreatePaymentIntent(ctx, domain.PaymentIntentRequest{
			AmountMinor:        args.AmountMinor,
			Currency:           args.Currency,
			BuyerEmail:         args.BuyerEmail,
			SharedPaymentToken: args.SharedPaymentToken,
		})
		if err != nil {
			logging.Errorw("payment intent create failed", "error", err)
			return errorResult(err.Error()), nil, nil
		}
		return textResult("Payment intent created.", nil), intent, nil
	})

	confirmIntent := &mcp.Tool{
		Name:  "confirm_payment_intent",
		Title: "Confirm Payment Intent",
		Description: "Conferma un payment intent. Se non ha payment_method, usa la card test " +
			"'pm_card_visa' come fallback.",
		Annotations: commerceAnnotations(),
	}
	mcp.AddTool(server, confirmIntent, func(ctx context.Context, req *mcp.CallToolRequest, args confirmPaymentIntentArgs) (*mcp.CallToolResult, any, error) {
		if s.deps.Payments == nil {
			return errorResult("Payments are not configured. Set the Stripe secret key."), nil, nil
		}
		intent, err := s.deps.Payments.ConfirmPaymentIntent(ctx, args.PaymentIntentID)
		if err != nil {
			logging.Errorw("payment intent confirm failed", "intent_id", args.PaymentIntentID, "error", err)
			return errorResult(err.Error()), nil, nil
		}
		return textResult("Payment intent confirmed.", nil), intent, nil
	})
}
