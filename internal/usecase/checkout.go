package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xeelshop/backend/internal/domain"
	"github.com/xeelshop/backend/internal/logging"
)

// welcomePromoCode grants a flat 10% discount on the subtotal.
const welcomePromoCode = "WELCOME10"

// eurFreeShippingThreshold is the subtotal in euros above which shipping is
// free. Below it a flat fee applies.
const (
	eurFreeShippingThreshold = 50
	eurShippingFeeMinor      = 500
)

// ComputeTotals prices the cart in minor units. Every line must convert to a
// positive minor unit amount, so a fraction below the currency's smallest
// denomination is rejected rather than priced at zero.
func ComputeTotals(items []domain.CheckoutItem, currency, promoCode string) (domain.CheckoutTotals, error) {
	var subtotal int64
	for _, item := range items {
		unitMinor := domain.MinorAmount(item.UnitAmountMajor, currency)
		if unitMinor <= 0 {
			return domain.CheckoutTotals{}, fmt.Errorf(
				"%w: item %q has no valid unit amount", domain.ErrInvalidInput, item.Name)
		}
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		subtotal += unitMinor * int64(quantity)
	}

	var discount int64
	if strings.EqualFold(strings.TrimSpace(promoCode), welcomePromoCode) {
		discount = int64(float64(subtotal) * 0.10)
	}

	var shipping int64
	c := strings.ToLower(strings.TrimSpace(currency))
	if c == "eur" && subtotal/100 < eurFreeShippingThreshold {
		shipping = eurShippingFeeMinor
	}

	grand := subtotal - discount + shipping
	if grand < 0 {
		grand = 0
	}

	return domain.CheckoutTotals{
		SubtotalMinor:   subtotal,
		DiscountMinor:   discount,
		TaxMinor:        0,
		ShippingMinor:   shipping,
		GrandTotalMinor: grand,
		Currency:        strings.ToUpper(c),
	}, nil
}

// CheckoutService manages checkout sessions backed by a key-value store and
// a payments provider. Create and complete operations accept idempotency
// keys so retried tool calls do not duplicate work.
type CheckoutService struct {
	store          domain.KVStore
	payments       domain.PaymentsProvider
	sessionTTL     time.Duration
	idempotencyTTL time.Duration
}

// NewCheckoutService creates a checkout service.
func NewCheckoutService(store domain.KVStore, payments domain.PaymentsProvider, sessionTTL, idempotencyTTL time.Duration) *CheckoutService {
	return &CheckoutService{
		store:          store,
		payments:       payments,
		sessionTTL:     sessionTTL,
		idempotencyTTL: idempotencyTTL,
	}
}

func sessionKey(id string) string   { return "checkout:session:" + id }
func idemKey(key, op string) string { return "checkout:idem:" + op + ":" + key }

func (s *CheckoutService) hasPayments() bool { return s.payments != nil }

// CreateSession opens a checkout session for the cart and creates the
// payment intent for its grand total up front. With an idempotency key, a
// replayed call returns the original session untouched.
func (s *CheckoutService) CreateSession(ctx context.Context, cart domain.CheckoutCart, buyerEmail, promoCode, sharedPaymentToken, idempotencyKey string) (*domain.CheckoutSession, error) {
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrInvalidInput)
	}

	if idempotencyKey != "" {
		if session, err := s.replaySession(ctx, idempotencyKey, "create"); err == nil {
			return session, nil
		}
	}
	if !s.hasPayments() {
		return nil, domain.ErrPaymentsNotConfigured
	}

	totals, err := ComputeTotals(cart.Items, cart.Currency, promoCode)
	if err != nil {
		return nil, err
	}
	cart.Totals = totals

	intent, err := s.payments.CreatePaymentIntent(ctx, domain.PaymentIntentRequest{
		AmountMinor:        totals.GrandTotalMinor,
		Currency:           totals.Currency,
		BuyerEmail:         buyerEmail,
		SharedPaymentToken: sharedPaymentToken,
		Metadata: map[string]string{
			"purpose":     "acp_demo",
			"items_count": strconv.Itoa(len(cart.Items)),
			"currency":    totals.Currency,
			"total_minor": strconv.FormatInt(totals.GrandTotalMinor, 10),
		},
	})
	if err != nil {
		return nil, err
	}

	session := &domain.CheckoutSession{
		ID:              uuid.NewString(),
		Status:          domain.SessionRequiresConfirmation,
		Cart:            cart,
		PaymentIntentID: intent.ID,
		BuyerEmail:      buyerEmail,
		PromoCode:       promoCode,
	}
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		s.rememberSession(ctx, idempotencyKey, "create", session)
	}

	logging.Infow("checkout session created",
		"session_id", session.ID, "items", len(cart.Items),
		"grand_total", totals.GrandTotalMinor, "payment_intent", intent.ID)
	return session, nil
}

// GetSession loads a session by id.
func (s *CheckoutService) GetSession(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	raw, err := s.store.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, fmt.Errorf("%w: session %s", domain.ErrSessionNotFound, id)
	}
	var session domain.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

// CheckoutUpdate carries the optional fields of an update call. Nil slices
// and empty strings leave the stored value in place.
type CheckoutUpdate struct {
	Items     []domain.CheckoutItem
	Currency  string
	PromoCode *string
}

// UpdateSession merges the update into an open session and reprices it.
func (s *CheckoutService) UpdateSession(ctx context.Context, id string, update CheckoutUpdate) (*domain.CheckoutSession, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionRequiresConfirmation {
		return nil, fmt.Errorf("%w: session %s is %s", domain.ErrInvalidInput, id, session.Status)
	}

	if update.Items != nil {
		session.Cart.Items = update.Items
	}
	if update.Currency != "" {
		session.Cart.Currency = update.Currency
	}
	if update.PromoCode != nil {
		session.PromoCode = *update.PromoCode
	}

	totals, err := ComputeTotals(session.Cart.Items, session.Cart.Currency, session.PromoCode)
	if err != nil {
		return nil, err
	}
	session.Cart.Totals = totals

	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// CompleteSession confirms the session's payment intent and records the
// outcome. With an idempotency key, a replayed call returns the originally
// completed session without confirming again.
func (s *CheckoutService) CompleteSession(ctx context.Context, id, idempotencyKey string) (*domain.CheckoutSession, error) {
	if idempotencyKey != "" {
		if session, err := s.replaySession(ctx, idempotencyKey, "complete"); err == nil {
			return session, nil
		}
	}

	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.hasPayments() {
		return nil, domain.ErrPaymentsNotConfigured
	}

	intent, err := s.payments.ConfirmPaymentIntent(ctx, session.PaymentIntentID)
	if err != nil {
		session.Status = domain.SessionFailed
		if saveErr := s.saveSession(ctx, session); saveErr != nil {
			logging.Errorw("persist failed session", "session_id", id, "error", saveErr)
		}
		return nil, err
	}

	if intent.Status == "succeeded" {
		session.Status = domain.SessionSucceeded
	} else {
		session.Status = domain.SessionFailed
	}
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		s.rememberSession(ctx, idempotencyKey, "complete", session)
	}

	logging.Infow("checkout session completed",
		"session_id", id, "status", session.Status, "payment_intent", session.PaymentIntentID)
	return session, nil
}

func (s *CheckoutService) saveSession(ctx context.Context, session *domain.CheckoutSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	return s.store.Set(ctx, sessionKey(session.ID), raw, s.sessionTTL)
}

func (s *CheckoutService) replaySession(ctx context.Context, key, op string) (*domain.CheckoutSession, error) {
	raw, err := s.store.Get(ctx, idemKey(key, op))
	if err != nil {
		return nil, err
	}
	var session domain.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	logging.Debugw("idempotent replay", "operation", op, "session_id", session.ID)
	return &session, nil
}

func (s *CheckoutService) rememberSession(ctx context.Context, key, op string, session *domain.CheckoutSession) {
	raw, err := json.Marshal(session)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, idemKey(key, op), raw, s.idempotencyTTL); err != nil {
		logging.Warnw("store idempotency record", "operation", op, "error", err)
	}
}
