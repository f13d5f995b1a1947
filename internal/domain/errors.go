package domain

import "errors"

var (
	// ErrProductNotFound is returned when no product matches the lookup
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrCatalogUnavailable is returned when the catalog database cannot be reached
	ErrCatalogUnavailable = errors.New("catalog database unavailable")

	// ErrInvalidInput is returned when tool or request parameters are invalid
	ErrInvalidInput = errors.New("invalid request parameters")

	// ErrUnsupportedGoal is returned when a bundle goal is not recognized
	ErrUnsupportedGoal = errors.New("unsupported bundle goal")

	// ErrSessionNotFound is returned when a checkout session id is unknown
	ErrSessionNotFound = errors.New("checkout session not found")

	// ErrPaymentFailed is returned when the payment provider rejects an operation
	ErrPaymentFailed = errors.New("payment operation failed")

	// ErrPaymentsNotConfigured is returned when no payment secret key is set
	ErrPaymentsNotConfigured = errors.New("payment provider not configured")

	// ErrStoreMiss is returned when data is not found in the key-value store
	ErrStoreMiss = errors.New("store miss")

	// ErrWidgetNotFound is returned when a widget template URI is unknown
	ErrWidgetNotFound = errors.New("widget template not found")
)
