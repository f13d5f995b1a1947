package domain

import (
	"context"
	"time"
)

// ProductCatalog defines the interface for the remote product database.
type ProductCatalog interface {
	FetchProducts(ctx context.Context) ([]Product, error)
}

// PaymentsProvider defines the interface for the payment processor.
type PaymentsProvider interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error)
	ConfirmPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)
	CreateHostedCheckout(ctx context.Context, req HostedCheckoutRequest) (*HostedCheckout, error)
}

// KVStore defines the interface for session and idempotency storage.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
