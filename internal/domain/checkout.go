package domain

// CheckoutItem is a cart line with its price expressed in major units
// (for example 10.50 for EUR).
type CheckoutItem struct {
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	UnitAmountMajor float64 `json:"unit_amount_major"`
	Description     string  `json:"description,omitempty"`
}

// CheckoutTotals holds the computed cart totals in minor units.
type CheckoutTotals struct {
	SubtotalMinor   int64  `json:"subtotal_minor"`
	DiscountMinor   int64  `json:"discount_minor"`
	TaxMinor        int64  `json:"tax_minor"`
	ShippingMinor   int64  `json:"shipping_minor"`
	GrandTotalMinor int64  `json:"grand_total_minor"`
	Currency        string `json:"currency"`
}

// CheckoutCart pairs cart lines with their computed totals.
type CheckoutCart struct {
	Items    []CheckoutItem `json:"items"`
	Currency string         `json:"currency"`
	Totals   CheckoutTotals `json:"totals"`
}

// Checkout session statuses.
const (
	SessionRequiresConfirmation = "requires_confirmation"
	SessionSucceeded            = "succeeded"
	SessionFailed               = "failed"
)

// CheckoutSession is the server-side state of an in-progress checkout.
type CheckoutSession struct {
	ID              string       `json:"id"`
	Status          string       `json:"status"`
	Cart            CheckoutCart `json:"cart"`
	PaymentIntentID string       `json:"payment_intent_id,omitempty"`
	BuyerEmail      string       `json:"buyer_email,omitempty"`
	PromoCode       string       `json:"promo_code,omitempty"`
}

// PaymentIntent is the provider-agnostic view of a created or confirmed
// payment intent.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Status       string `json:"status"`
}

// HostedCheckout is a provider-hosted checkout page for the cart.
type HostedCheckout struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Currency    string `json:"currency"`
	AmountTotal int64  `json:"amount_total"`
}

// PaymentIntentRequest carries the inputs for creating a payment intent.
type PaymentIntentRequest struct {
	AmountMinor        int64
	Currency           string
	BuyerEmail         string
	SharedPaymentToken string
	Metadata           map[string]string
}

// HostedCheckoutRequest carries the inputs for a hosted checkout page.
type HostedCheckoutRequest struct {
	Items          []CheckoutItem
	Currency       string
	SuccessURL     string
	CancelURL      string
	CustomerEmail  string
	BillingDetails map[string]string
	Metadata       map[string]string
}
