package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/paymentintent"

	"github.com/xeelshop/backend/internal/domain"
	"github.com/xeelshop/backend/internal/logging"
)

// demoSharedPaymentTokens maps demo shared payment tokens to Stripe test
// payment methods.
var demoSharedPaymentTokens = map[string]string{
	"test_spt_visa": "pm_card_visa",
	"test_spt_3ds2": "pm_card_authenticationRequired",
}

// fallbackPaymentMethod confirms intents created without a payment method.
const fallbackPaymentMethod = "pm_card_visa"

// StripeProvider implements domain.PaymentsProvider against the Stripe API.
type StripeProvider struct{}

// NewStripeProvider configures the Stripe client. The secret key is
// required.
func NewStripeProvider(secretKey string) (*StripeProvider, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, domain.ErrPaymentsNotConfigured
	}
	stripe.Key = secretKey
	return &StripeProvider{}, nil
}

// CreatePaymentIntent creates a card-only intent without confirming it.
// Card-only avoids redirect payment methods, which would require a
// return URL. A recognized shared payment token attaches the matching test
// payment method.
func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Params:             stripe.Params{Context: ctx},
		Amount:             stripe.Int64(req.AmountMinor),
		Currency:           stripe.String(strings.ToLower(req.Currency)),
		CaptureMethod:      stripe.String(string(stripe.PaymentIntentCaptureMethodAutomatic)),
		Confirm:            stripe.Bool(false),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if req.BuyerEmail != "" {
		params.ReceiptEmail = stripe.String(req.BuyerEmail)
	}
	if pm, ok := demoSharedPaymentTokens[req.SharedPaymentToken]; ok {
		params.PaymentMethod = stripe.String(pm)
	}
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create intent: %v", domain.ErrPaymentFailed, err)
	}

	logging.Infow("payment intent created",
		"intent_id", intent.ID, "amount", req.AmountMinor, "currency", req.Currency)
	return toPaymentIntent(intent), nil
}

// ConfirmPaymentIntent confirms the intent. Intents created without a
// payment method are confirmed with the test visa card so the demo happy
// path completes.
func (p *StripeProvider) ConfirmPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.PaymentIntent, error) {
	current, err := paymentintent.Get(paymentIntentID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve intent %s: %v", domain.ErrPaymentFailed, paymentIntentID, err)
	}

	confirmParams := &stripe.PaymentIntentConfirmParams{
		Params: stripe.Params{Context: ctx},
	}
	if current.PaymentMethod == nil {
		confirmParams.PaymentMethod = stripe.String(fallbackPaymentMethod)
	}

	intent, err := paymentintent.Confirm(paymentIntentID, confirmParams)
	if err != nil {
		return nil, fmt.Errorf("%w: confirm intent %s: %v", domain.ErrPaymentFailed, paymentIntentID, err)
	}

	logging.Infow("payment intent confirmed", "intent_id", intent.ID, "status", intent.Status)
	return toPaymentIntent(intent), nil
}

// CreateHostedCheckout creates a Stripe-hosted checkout page for the cart.
// Billing details are carried as metadata with a billing_ prefix.
func (p *StripeProvider) CreateHostedCheckout(ctx context.Context, req domain.HostedCheckoutRequest) (*domain.HostedCheckout, error) {
	currency := strings.ToLower(req.Currency)

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		unitAmount := domain.MinorAmount(item.UnitAmountMajor, currency)
		if unitAmount <= 0 {
			return nil, fmt.Errorf("%w: item %q has no valid unit amount", domain.ErrInvalidInput, item.Name)
		}
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			productData.Description = stripe.String(item.Description)
		}
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(unitAmount),
			},
			Quantity: stripe.Int64(int64(quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Params:                   stripe.Params{Context: ctx},
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:                lineItems,
		SuccessURL:               stripe.String(req.SuccessURL),
		CancelURL:                stripe.String(req.CancelURL),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
	}
	if email := strings.TrimSpace(req.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}
	for key, value := range req.BillingDetails {
		if value != "" {
			params.AddMetadata("billing_"+key, value)
		}
	}

	session, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", domain.ErrPaymentFailed, err)
	}

	logging.Infow("hosted checkout created", "session_id", session.ID, "amount_total", session.AmountTotal)
	return &domain.HostedCheckout{
		ID:          session.ID,
		URL:         session.URL,
		Currency:    currency,
		AmountTotal: session.AmountTotal,
	}, nil
}

func toPaymentIntent(intent *stripe.PaymentIntent) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}
}
