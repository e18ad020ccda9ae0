package billing

import (
	"context"
	"encoding/json"

	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
)

// Provider is the payment-provider API surface the billing service needs.
// The production implementation wraps the Stripe SDK; tests use stubs.
type Provider interface {
	CreateCustomer(ctx context.Context, in CustomerInput) (string, error)
	CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (PaymentIntentResult, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (CheckoutSessionResult, error)
	GetSubscription(ctx context.Context, subscriptionID string) (ProviderSubscription, error)
	VerifyEvent(payload []byte, signatureHeader string) (Event, error)
}

type CustomerInput struct {
	Email          string
	Name           string
	IdempotencyKey string
}

type PaymentIntentInput struct {
	AmountCents int64
	Currency    string
	CustomerID  string
	Metadata    IntentMetadata
}

type PaymentIntentResult struct {
	ID           string
	ClientSecret string
	AmountCents  int64
}

type CheckoutSessionInput struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

type CheckoutSessionResult struct {
	ID  string
	URL string
}

// ProviderSubscription is the provider's view of a recurring subscription,
// normalized into local types. It doubles as the storage upsert payload, so
// it lives in the model package.
type ProviderSubscription = model.SubscriptionSnapshot

// Event is one verified webhook delivery. Object carries the raw event
// object; handlers parse it into a typed payload at the boundary.
type Event struct {
	Kind   EventKind
	Type   string
	Object json.RawMessage
}
