package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
	billingsvc "github.com/GarryCodespace/xFood-Web/internal/services/billing"
)

// fakeProvider is just enough of the payment provider to drive handler
// tests: signature header "bad" fails verification, the payload is a plain
// {"type": ..., "object": ...} envelope.
type fakeProvider struct {
	intents int
}

func (f *fakeProvider) CreateCustomer(context.Context, billingsvc.CustomerInput) (string, error) {
	return "cus_test", nil
}

func (f *fakeProvider) CreatePaymentIntent(_ context.Context, in billingsvc.PaymentIntentInput) (billingsvc.PaymentIntentResult, error) {
	f.intents++
	return billingsvc.PaymentIntentResult{
		ID:           fmt.Sprintf("pi_%d", f.intents),
		ClientSecret: "secret",
		AmountCents:  in.AmountCents,
	}, nil
}

func (f *fakeProvider) CreateCheckoutSession(context.Context, billingsvc.CheckoutSessionInput) (billingsvc.CheckoutSessionResult, error) {
	return billingsvc.CheckoutSessionResult{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
}

func (f *fakeProvider) GetSubscription(context.Context, string) (billingsvc.ProviderSubscription, error) {
	return billingsvc.ProviderSubscription{}, fmt.Errorf("not wired in this test")
}

func (f *fakeProvider) VerifyEvent(payload []byte, signatureHeader string) (billingsvc.Event, error) {
	if signatureHeader == "bad" {
		return billingsvc.Event{}, fmt.Errorf("signature mismatch")
	}
	var envelope struct {
		Type   string          `json:"type"`
		Object json.RawMessage `json:"object"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return billingsvc.Event{}, err
	}
	return billingsvc.Event{
		Kind:   billingsvc.ParseEventKind(envelope.Type),
		Type:   envelope.Type,
		Object: envelope.Object,
	}, nil
}

type fakeUserStore struct {
	users map[int64]model.User
}

func (f *fakeUserStore) FindByID(_ context.Context, userID int64) (model.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return model.User{}, pgrepo.ErrUserNotFound
}

func (f *fakeUserStore) FindByStripeCustomerID(_ context.Context, customerID string) (model.User, error) {
	for _, u := range f.users {
		if u.StripeCustomerID == customerID {
			return u, nil
		}
	}
	return model.User{}, pgrepo.ErrUserNotFound
}

func (f *fakeUserStore) SetStripeCustomerIDIfAbsent(_ context.Context, userID int64, customerID string) (string, error) {
	u := f.users[userID]
	if u.StripeCustomerID == "" {
		u.StripeCustomerID = customerID
		f.users[userID] = u
	}
	return f.users[userID].StripeCustomerID, nil
}

type fakeRecipeStore struct{ recipes map[int64]model.Recipe }

func (f *fakeRecipeStore) FindByID(_ context.Context, id int64) (model.Recipe, error) {
	if rec, ok := f.recipes[id]; ok {
		return rec, nil
	}
	return model.Recipe{}, pgrepo.ErrRecipeNotFound
}

type fakeBakeStore struct{ bakes map[int64]model.Bake }

func (f *fakeBakeStore) FindByID(_ context.Context, id int64) (model.Bake, error) {
	if b, ok := f.bakes[id]; ok {
		return b, nil
	}
	return model.Bake{}, pgrepo.ErrBakeNotFound
}

type fakePurchaseStore struct{ byIntent map[string]model.Purchase }

func (f *fakePurchaseStore) CreateFromIntent(_ context.Context, p model.Purchase) (model.Purchase, bool, error) {
	if existing, ok := f.byIntent[p.PaymentIntentID]; ok {
		return existing, false, nil
	}
	p.ID = int64(len(f.byIntent) + 1)
	f.byIntent[p.PaymentIntentID] = p
	return p, true, nil
}

func (f *fakePurchaseStore) ListByBuyer(_ context.Context, buyerID int64, _, _ int) ([]model.Purchase, error) {
	var out []model.Purchase
	for _, p := range f.byIntent {
		if p.BuyerID == buyerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePurchaseStore) ListBySeller(_ context.Context, sellerID int64, _, _ int) ([]model.Purchase, error) {
	var out []model.Purchase
	for _, p := range f.byIntent {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeSubscriptionStore struct{}

func (fakeSubscriptionStore) UpsertFromProvider(_ context.Context, _ int64, _ billingsvc.ProviderSubscription) (model.Subscription, bool, error) {
	return model.Subscription{}, false, pgrepo.ErrSubscriptionNotFound
}

func (fakeSubscriptionStore) FindByProviderID(context.Context, string) (model.Subscription, error) {
	return model.Subscription{}, pgrepo.ErrSubscriptionNotFound
}

func (fakeSubscriptionStore) FindActiveByUser(context.Context, int64) (model.Subscription, error) {
	return model.Subscription{}, pgrepo.ErrSubscriptionNotFound
}

func (fakeSubscriptionStore) MarkCanceled(context.Context, string) (model.Subscription, error) {
	return model.Subscription{}, pgrepo.ErrSubscriptionNotFound
}

func newTestBillingService() (*billingsvc.Service, *fakeProvider, *fakePurchaseStore) {
	provider := &fakeProvider{}
	purchases := &fakePurchaseStore{byIntent: make(map[string]model.Purchase)}
	price := int64(1500)
	svc := billingsvc.NewService(billingsvc.Dependencies{
		Provider: provider,
		Users: &fakeUserStore{users: map[int64]model.User{
			1: {ID: 1, Email: "buyer@example.com", FullName: "Buyer", IsActive: true},
			2: {ID: 2, Email: "seller@example.com", FullName: "Seller", IsActive: true},
		}},
		Recipes: &fakeRecipeStore{recipes: map[int64]model.Recipe{
			10: {ID: 10, Title: "Sourdough Deep Dive", IsPremium: true, PriceCents: &price, CreatedBy: 2},
		}},
		Bakes:         &fakeBakeStore{bakes: map[int64]model.Bake{}},
		Purchases:     purchases,
		Subscriptions: fakeSubscriptionStore{},
	}, billingsvc.Config{
		CommissionBPS:       1000,
		Currency:            "usd",
		SubscriptionPriceID: "price_premium",
		FrontendURL:         "https://xfood.example",
	})
	return svc, provider, purchases
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	svc, _, _ := newTestBillingService()
	handler := NewWebhookHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "bad")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebhookAcknowledgesUnknownEventType(t *testing.T) {
	svc, _, _ := newTestBillingService()
	handler := NewWebhookHandler(svc)

	body := `{"type":"charge.refunded","object":{}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "good")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ack struct {
		Received bool `json:"received"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil || !ack.Received {
		t.Fatalf("expected received ack, got %s", rec.Body.String())
	}
}

func TestWebhookRecordsPurchaseOnce(t *testing.T) {
	svc, _, purchases := newTestBillingService()
	handler := NewWebhookHandler(svc)

	body := `{"type":"payment_intent.succeeded","object":{
		"id":"pi_123","amount":1500,"customer":"cus_test",
		"metadata":{"platform":"xfood","item_type":"recipe","item_id":"10","seller_id":"2","buyer_id":"1"}
	}}`

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
		req.Header.Set("Stripe-Signature", "good")
		rec := httptest.NewRecorder()
		handler.Handle(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d: %s", i+1, rec.Code, rec.Body.String())
		}
	}

	if len(purchases.byIntent) != 1 {
		t.Fatalf("expected exactly one purchase row, got %d", len(purchases.byIntent))
	}
	p := purchases.byIntent["pi_123"]
	if p.PlatformFeeCents != 150 || p.SellerEarningsCents != 1350 {
		t.Fatalf("wrong fee split: fee=%d earnings=%d", p.PlatformFeeCents, p.SellerEarningsCents)
	}
}

func TestWebhookRejectsMalformedMetadata(t *testing.T) {
	svc, _, purchases := newTestBillingService()
	handler := NewWebhookHandler(svc)

	body := `{"type":"payment_intent.succeeded","object":{
		"id":"pi_bad","amount":1500,
		"metadata":{"platform":"xfood","item_type":"recipe","item_id":"not-a-number","seller_id":"2","buyer_id":"1"}
	}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "good")
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(purchases.byIntent) != 0 {
		t.Fatalf("malformed delivery must not record a purchase")
	}
}
