package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/xeelshop/backend/internal/domain"
)

type fakeStore struct {
	data map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := s.data[key]
	if !ok {
		return nil, domain.ErrStoreMiss
	}
	return value, nil
}

func (s *fakeStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.data[key] = value
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.data[key]
	return ok, nil
}

type fakePayments struct {
	createCalls   int
	confirmCalls  int
	failCreate    bool
	failConfirm   bool
	confirmStatus string
}

func (p *fakePayments) CreatePaymentIntent(_ context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
	p.createCalls++
	if p.failCreate {
		return nil, fmt.Errorf("%w: card declined", domain.ErrPaymentFailed)
	}
	return &domain.PaymentIntent{
		ID:     fmt.Sprintf("pi_%d", p.createCalls),
		Status: "requires_confirmation",
	}, nil
}

func (p *fakePayments) ConfirmPaymentIntent(_ context.Context, id string) (*domain.PaymentIntent, error) {
	p.confirmCalls++
	if p.failConfirm {
		return nil, fmt.Errorf("%w: card declined", domain.ErrPaymentFailed)
	}
	status := p.confirmStatus
	if status == "" {
		status = "succeeded"
	}
	return &domain.PaymentIntent{ID: id, Status: status}, nil
}

func (p *fakePayments) CreateHostedCheckout(_ context.Context, _ domain.HostedCheckoutRequest) (*domain.HostedCheckout, error) {
	return &domain.HostedCheckout{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
}

func testCart() domain.CheckoutCart {
	return domain.CheckoutCart{
		Items: []domain.CheckoutItem{
			{Name: "Smart TV 50 pollici", Quantity: 1, UnitAmountMajor: 399.90},
			{Name: "Cavo HDMI", Quantity: 2, UnitAmountMajor: 12.50},
		},
		Currency: "eur",
	}
}

func TestComputeTotals(t *testing.T) {
	t.Run("sums lines and adds shipping below the threshold", func(t *testing.T) {
		items := []domain.CheckoutItem{{Name: "Cavo HDMI", Quantity: 2, UnitAmountMajor: 12.50}}
		totals, err := ComputeTotals(items, "eur", "")
		if err != nil {
			t.Fatalf("ComputeTotals() error = %v", err)
		}
		if totals.SubtotalMinor != 2500 {
			t.Errorf("subtotal = %d, want 2500", totals.SubtotalMinor)
		}
		if totals.ShippingMinor != 500 {
			t.Errorf("shipping = %d, want 500", totals.ShippingMinor)
		}
		if totals.GrandTotalMinor != 3000 {
			t.Errorf("grand total = %d, want 3000", totals.GrandTotalMinor)
		}
	})

	t.Run("free shipping at the threshold", func(t *testing.T) {
		items := []domain.CheckoutItem{{Name: "Soundbar", Quantity: 1, UnitAmountMajor: 50.00}}
		totals, err := ComputeTotals(items, "eur", "")
		if err != nil {
			t.Fatalf("ComputeTotals() error = %v", err)
		}
		if totals.ShippingMinor != 0 {
			t.Errorf("shipping = %d, want 0", totals.ShippingMinor)
		}
	})

	t.Run("welcome promo takes ten percent off", func(t *testing.T) {
		items := []domain.CheckoutItem{{Name: "Smart TV", Quantity: 1, UnitAmountMajor: 100.00}}
		totals, err := ComputeTotals(items, "eur", "WELCOME10")
		if err != nil {
			t.Fatalf("ComputeTotals() error = %v", err)
		}
		if totals.DiscountMinor != 1000 {
			t.Errorf("discount = %d, want 1000", totals.DiscountMinor)
		}
		if totals.GrandTotalMinor != 9000 {
			t.Errorf("grand total = %d, want 9000", totals.GrandTotalMinor)
		}
	})

	t.Run("unknown promo changes nothing", func(t *testing.T) {
		items := []domain.CheckoutItem{{Name: "Smart TV", Quantity: 1, UnitAmountMajor: 100.00}}
		totals, err := ComputeTotals(items, "eur", "SUMMER50")
		if err != nil {
			t.Fatalf("ComputeTotals() error = %v", err)
		}
		if totals.DiscountMinor != 0 {
			t.Errorf("discount = %d, want 0", totals.DiscountMinor)
		}
	})

	t.Run("rejects items without a price", func(t *testing.T) {
		items := []domain.CheckoutItem{{Name: "Mystery box", Quantity: 1}}
		_, err := ComputeTotals(items, "eur", "")
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("rejects amounts that round to zero minor units", func(t *testing.T) {
		// 0.001 EUR converts to 0 cents; it must error, not price at zero.
		items := []domain.CheckoutItem{{Name: "Sticker", Quantity: 1, UnitAmountMajor: 0.001}}
		_, err := ComputeTotals(items, "eur", "")
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		items := []domain.CheckoutItem{{Name: "Refund line", Quantity: 1, UnitAmountMajor: -5}}
		_, err := ComputeTotals(items, "eur", "")
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("no shipping outside eur", func(t *testing.T) {
		items := []domain.CheckoutItem{{Name: "Cavo HDMI", Quantity: 1, UnitAmountMajor: 10.00}}
		totals, err := ComputeTotals(items, "usd", "")
		if err != nil {
			t.Fatalf("ComputeTotals() error = %v", err)
		}
		if totals.ShippingMinor != 0 {
			t.Errorf("shipping = %d, want 0", totals.ShippingMinor)
		}
	})
}

func TestCheckoutService(t *testing.T) {
	ctx := context.Background()
	newService := func(payments domain.PaymentsProvider) *CheckoutService {
		return NewCheckoutService(newFakeStore(), payments, time.Hour, time.Hour)
	}

	t.Run("rejects an empty cart", func(t *testing.T) {
		svc := newService(&fakePayments{})
		_, err := svc.CreateSession(ctx, domain.CheckoutCart{}, "", "", "", "")
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("create opens a payment intent and stores the session", func(t *testing.T) {
		payments := &fakePayments{}
		svc := newService(payments)
		created, err := svc.CreateSession(ctx, testCart(), "buyer@example.com", "", "", "")
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		if created.Status != domain.SessionRequiresConfirmation {
			t.Errorf("status = %q, want %q", created.Status, domain.SessionRequiresConfirmation)
		}
		if created.PaymentIntentID == "" {
			t.Error("payment intent id not recorded")
		}
		if payments.createCalls != 1 {
			t.Errorf("createCalls = %d, want 1", payments.createCalls)
		}
		loaded, err := svc.GetSession(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetSession() error = %v", err)
		}
		if loaded.Cart.Totals.GrandTotalMinor != created.Cart.Totals.GrandTotalMinor {
			t.Errorf("loaded grand total = %d, want %d",
				loaded.Cart.Totals.GrandTotalMinor, created.Cart.Totals.GrandTotalMinor)
		}
	})

	t.Run("create is idempotent per key", func(t *testing.T) {
		payments := &fakePayments{}
		svc := newService(payments)
		first, err := svc.CreateSession(ctx, testCart(), "", "", "", "idem-1")
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		second, err := svc.CreateSession(ctx, testCart(), "", "", "", "idem-1")
		if err != nil {
			t.Fatalf("CreateSession() replay error = %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("replayed session id = %q, want %q", second.ID, first.ID)
		}
		if payments.createCalls != 1 {
			t.Errorf("createCalls = %d, want 1", payments.createCalls)
		}
	})

	t.Run("update reprices the cart", func(t *testing.T) {
		svc := newService(&fakePayments{})
		created, err := svc.CreateSession(ctx, testCart(), "", "", "", "")
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		promo := "WELCOME10"
		updated, err := svc.UpdateSession(ctx, created.ID, CheckoutUpdate{
			Items:     []domain.CheckoutItem{{Name: "Soundbar", Quantity: 1, UnitAmountMajor: 100.00}},
			PromoCode: &promo,
		})
		if err != nil {
			t.Fatalf("UpdateSession() error = %v", err)
		}
		if updated.Cart.Totals.DiscountMinor != 1000 {
			t.Errorf("discount = %d, want 1000", updated.Cart.Totals.DiscountMinor)
		}
	})

	t.Run("update of an unknown session fails", func(t *testing.T) {
		svc := newService(&fakePayments{})
		_, err := svc.UpdateSession(ctx, "missing", CheckoutUpdate{Currency: "eur"})
		if !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("complete confirms the intent and marks success", func(t *testing.T) {
		payments := &fakePayments{}
		svc := newService(payments)
		created, err := svc.CreateSession(ctx, testCart(), "", "", "", "")
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		completed, err := svc.CompleteSession(ctx, created.ID, "")
		if err != nil {
			t.Fatalf("CompleteSession() error = %v", err)
		}
		if completed.Status != domain.SessionSucceeded {
			t.Errorf("status = %q, want %q", completed.Status, domain.SessionSucceeded)
		}
		if payments.confirmCalls != 1 {
			t.Errorf("confirmCalls = %d, want 1", payments.confirmCalls)
		}
	})

	t.Run("complete replay does not confirm twice", func(t *testing.T) {
		payments := &fakePayments{}
		svc := newService(payments)
		created, err := svc.CreateSession(ctx, testCart(), "", "", "", "")
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		if _, err := svc.CompleteSession(ctx, created.ID, "idem-pay"); err != nil {
			t.Fatalf("CompleteSession() error = %v", err)
		}
		if _, err := svc.CompleteSession(ctx, created.ID, "idem-pay"); err != nil {
			t.Fatalf("CompleteSession() replay error = %v", err)
		}
		if payments.confirmCalls != 1 {
			t.Errorf("confirmCalls = %d, want 1", payments.confirmCalls)
		}
	})

	t.Run("declined confirmation marks the session failed", func(t *testing.T) {
		payments := &fakePayments{}
		svc := newService(payments)
		created, err := svc.CreateSession(ctx, testCart(), "", "", "", "")
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		payments.failConfirm = true
		_, err = svc.CompleteSession(ctx, created.ID, "")
		if !errors.Is(err, domain.ErrPaymentFailed) {
			t.Errorf("error = %v, want ErrPaymentFailed", err)
		}
		session, err := svc.GetSession(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetSession() error = %v", err)
		}
		if session.Status != domain.SessionFailed {
			t.Errorf("status = %q, want %q", session.Status, domain.SessionFailed)
		}
	})

	t.Run("create without a payments provider fails", func(t *testing.T) {
		svc := newService(nil)
		_, err := svc.CreateSession(ctx, testCart(), "", "", "", "")
		if !errors.Is(err, domain.ErrPaymentsNotConfigured) {
			t.Errorf("error = %v, want ErrPaymentsNotConfigured", err)
		}
	})
}
