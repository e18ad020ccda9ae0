package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
)

// stubProvider satisfies Provider with function hooks; unset hooks get
// reasonable defaults. VerifyEvent decodes the payload as a bare Event
// envelope and rejects the signature header "bad".
type stubProvider struct {
	mu                  sync.Mutex
	customersCreated    int
	intentsCreated      int
	subscriptionFetches int

	createCustomer        func(in CustomerInput) (string, error)
	createPaymentIntent   func(in PaymentIntentInput) (PaymentIntentResult, error)
	createCheckoutSession func(in CheckoutSessionInput) (CheckoutSessionResult, error)
	getSubscription       func(id string) (ProviderSubscription, error)

	lastIntentInput PaymentIntentInput
}

type stubEnvelope struct {
	Type   string          `json:"type"`
	Object json.RawMessage `json:"object"`
}

func (p *stubProvider) CreateCustomer(_ context.Context, in CustomerInput) (string, error) {
	p.mu.Lock()
	p.customersCreated++
	n := p.customersCreated
	p.mu.Unlock()

	if p.createCustomer != nil {
		return p.createCustomer(in)
	}
	return fmt.Sprintf("cus_stub_%d", n), nil
}

func (p *stubProvider) CreatePaymentIntent(_ context.Context, in PaymentIntentInput) (PaymentIntentResult, error) {
	p.mu.Lock()
	p.intentsCreated++
	n := p.intentsCreated
	p.lastIntentInput = in
	p.mu.Unlock()

	if p.createPaymentIntent != nil {
		return p.createPaymentIntent(in)
	}
	return PaymentIntentResult{
		ID:           fmt.Sprintf("pi_stub_%d", n),
		ClientSecret: fmt.Sprintf("pi_stub_%d_secret", n),
		AmountCents:  in.AmountCents,
	}, nil
}

func (p *stubProvider) CreateCheckoutSession(_ context.Context, in CheckoutSessionInput) (CheckoutSessionResult, error) {
	if p.createCheckoutSession != nil {
		return p.createCheckoutSession(in)
	}
	return CheckoutSessionResult{ID: "cs_stub_1", URL: "https://checkout.example/cs_stub_1"}, nil
}

func (p *stubProvider) GetSubscription(_ context.Context, id string) (ProviderSubscription, error) {
	p.mu.Lock()
	p.subscriptionFetches++
	p.mu.Unlock()

	if p.getSubscription != nil {
		return p.getSubscription(id)
	}
	return ProviderSubscription{}, fmt.Errorf("no subscription stubbed for %s", id)
}

func (p *stubProvider) VerifyEvent(payload []byte, signatureHeader string) (Event, error) {
	if signatureHeader == "bad" {
		return Event{}, fmt.Errorf("signature mismatch")
	}
	var envelope stubEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Event{}, fmt.Errorf("decode stub event: %w", err)
	}
	return Event{
		Kind:   ParseEventKind(envelope.Type),
		Type:   envelope.Type,
		Object: envelope.Object,
	}, nil
}

type stubUserStore struct {
	mu    sync.Mutex
	users map[int64]model.User
}

func newStubUserStore(users ...model.User) *stubUserStore {
	s := &stubUserStore{users: make(map[int64]model.User)}
	for _, user := range users {
		s.users[user.ID] = user
	}
	return s
}

func (s *stubUserStore) FindByID(_ context.Context, userID int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (s *stubUserStore) FindByStripeCustomerID(_ context.Context, customerID string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.StripeCustomerID == customerID {
			return user, nil
		}
	}
	return model.User{}, pgrepo.ErrUserNotFound
}

func (s *stubUserStore) SetStripeCustomerIDIfAbsent(_ context.Context, userID int64, customerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return "", pgrepo.ErrUserNotFound
	}
	if user.StripeCustomerID == "" {
		user.StripeCustomerID = customerID
		s.users[userID] = user
	}
	return user.StripeCustomerID, nil
}

func (s *stubUserStore) get(userID int64) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID]
}

func (s *stubUserStore) setFlag(userID int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[userID]
	user.HasActiveSubscription = active
	s.users[userID] = user
}

type stubRecipeStore struct {
	recipes map[int64]model.Recipe
}

func (s *stubRecipeStore) FindByID(_ context.Context, recipeID int64) (model.Recipe, error) {
	recipe, ok := s.recipes[recipeID]
	if !ok {
		return model.Recipe{}, pgrepo.ErrRecipeNotFound
	}
	return recipe, nil
}

type stubBakeStore struct {
	bakes map[int64]model.Bake
}

func (s *stubBakeStore) FindByID(_ context.Context, bakeID int64) (model.Bake, error) {
	bake, ok := s.bakes[bakeID]
	if !ok {
		return model.Bake{}, pgrepo.ErrBakeNotFound
	}
	return bake, nil
}

type stubPurchaseStore struct {
	mu        sync.Mutex
	nextID    int64
	byIntent  map[string]model.Purchase
	createErr error
}

func newStubPurchaseStore() *stubPurchaseStore {
	return &stubPurchaseStore{nextID: 1, byIntent: make(map[string]model.Purchase)}
}

func (s *stubPurchaseStore) CreateFromIntent(_ context.Context, purchase model.Purchase) (model.Purchase, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return model.Purchase{}, false, s.createErr
	}
	if existing, ok := s.byIntent[purchase.PaymentIntentID]; ok {
		return existing, false, nil
	}
	purchase.ID = s.nextID
	s.nextID++
	s.byIntent[purchase.PaymentIntentID] = purchase
	return purchase, true, nil
}

func (s *stubPurchaseStore) ListByBuyer(_ context.Context, buyerID int64, _, _ int) ([]model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Purchase
	for _, p := range s.byIntent {
		if p.BuyerID == buyerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPurchaseStore) ListBySeller(_ context.Context, sellerID int64, _, _ int) ([]model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Purchase
	for _, p := range s.byIntent {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPurchaseStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byIntent)
}

// stubSubscriptionStore mirrors the storage-level stale guard: canceled rows
// are terminal and a row whose period end is ahead of the snapshot rejects
// the write. It flips the user flag on the paired user store the way the
// real repo resyncs it in-transaction.
type stubSubscriptionStore struct {
	mu    sync.Mutex
	subs  map[string]model.Subscription
	users *stubUserStore
}

func newStubSubscriptionStore(users *stubUserStore) *stubSubscriptionStore {
	return &stubSubscriptionStore{subs: make(map[string]model.Subscription), users: users}
}

func (s *stubSubscriptionStore) UpsertFromProvider(_ context.Context, ownerID int64, snap model.SubscriptionSnapshot) (model.Subscription, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subs[snap.SubscriptionID]
	if !ok {
		if ownerID <= 0 {
			return model.Subscription{}, false, pgrepo.ErrSubscriptionNotFound
		}
		row := model.Subscription{
			ID:                 int64(len(s.subs) + 1),
			UserID:             ownerID,
			SubscriptionID:     snap.SubscriptionID,
			Status:             snap.Status,
			CurrentPeriodStart: snap.CurrentPeriodStart,
			CurrentPeriodEnd:   snap.CurrentPeriodEnd,
			CancelAtPeriodEnd:  snap.CancelAtPeriodEnd,
		}
		s.subs[snap.SubscriptionID] = row
		s.resyncLocked(row.UserID)
		return row, true, nil
	}

	if existing.Status == enums.SubscriptionStatusCanceled || existing.CurrentPeriodEnd.After(snap.CurrentPeriodEnd) {
		return existing, false, nil
	}

	existing.Status = snap.Status
	existing.CurrentPeriodStart = snap.CurrentPeriodStart
	existing.CurrentPeriodEnd = snap.CurrentPeriodEnd
	existing.CancelAtPeriodEnd = snap.CancelAtPeriodEnd
	s.subs[snap.SubscriptionID] = existing
	s.resyncLocked(existing.UserID)
	return existing, true, nil
}

func (s *stubSubscriptionStore) FindByProviderID(_ context.Context, subscriptionID string) (model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[subscriptionID]
	if !ok {
		return model.Subscription{}, pgrepo.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *stubSubscriptionStore) FindActiveByUser(_ context.Context, userID int64) (model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		if sub.UserID == userID && sub.Status == enums.SubscriptionStatusActive {
			return sub, nil
		}
	}
	return model.Subscription{}, pgrepo.ErrSubscriptionNotFound
}

func (s *stubSubscriptionStore) MarkCanceled(_ context.Context, subscriptionID string) (model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[subscriptionID]
	if !ok {
		return model.Subscription{}, pgrepo.ErrSubscriptionNotFound
	}
	sub.Status = enums.SubscriptionStatusCanceled
	s.subs[subscriptionID] = sub
	s.resyncLocked(sub.UserID)
	return sub, nil
}

func (s *stubSubscriptionStore) resyncLocked(userID int64) {
	if s.users == nil {
		return
	}
	active := false
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.Status == enums.SubscriptionStatusActive {
			active = true
			break
		}
	}
	s.users.setFlag(userID, active)
}

func (s *stubSubscriptionStore) get(subscriptionID string) (model.Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[subscriptionID]
	return sub, ok
}

type billingFixture struct {
	svc           *Service
	provider      *stubProvider
	users         *stubUserStore
	recipes       *stubRecipeStore
	bakes         *stubBakeStore
	purchases     *stubPurchaseStore
	subscriptions *stubSubscriptionStore
}

func newBillingFixture(users ...model.User) *billingFixture {
	provider := &stubProvider{}
	userStore := newStubUserStore(users...)
	recipes := &stubRecipeStore{recipes: make(map[int64]model.Recipe)}
	bakes := &stubBakeStore{bakes: make(map[int64]model.Bake)}
	purchases := newStubPurchaseStore()
	subscriptions := newStubSubscriptionStore(userStore)

	svc := NewService(Dependencies{
		Provider:      provider,
		Users:         userStore,
		Recipes:       recipes,
		Bakes:         bakes,
		Purchases:     purchases,
		Subscriptions: subscriptions,
		Logger:        zap.NewNop(),
	}, Config{
		CommissionBPS:       1000,
		Currency:            "usd",
		SubscriptionPriceID: "price_premium",
		FrontendURL:         "https://xfood.example",
	})
	svc.retryInitial = time.Millisecond
	svc.retryMax = 2

	return &billingFixture{
		svc:           svc,
		provider:      provider,
		users:         userStore,
		recipes:       recipes,
		bakes:         bakes,
		purchases:     purchases,
		subscriptions: subscriptions,
	}
}
