package billing

import (
	"context"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
)

// StripeProvider implements Provider on top of the Stripe SDK. It holds its
// own API client so tests and other tenants of the process never touch the
// SDK's global key.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string, httpClient *http.Client) (*StripeProvider, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe secret key is empty")
	}
	if webhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook secret is empty")
	}

	api := &client.API{}
	if httpClient != nil {
		api.Init(secretKey, stripe.NewBackends(httpClient))
	} else {
		api.Init(secretKey, nil)
	}

	return &StripeProvider{api: api, webhookSecret: webhookSecret}, nil
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, in CustomerInput) (string, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(in.Email),
	}
	if in.Name != "" {
		params.Name = stripe.String(in.Name)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}

	customer, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return customer.ID, nil
}

func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (PaymentIntentResult, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(in.AmountCents),
		Currency: stripe.String(in.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if in.CustomerID != "" {
		params.Customer = stripe.String(in.CustomerID)
	}
	for key, value := range in.Metadata.ToMap() {
		params.AddMetadata(key, value)
	}

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return PaymentIntentResult{}, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return PaymentIntentResult{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  intent.Amount,
	}, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (CheckoutSessionResult, error) {
	params := &stripe.CheckoutSessionParams{
		Params:     stripe.Params{Context: ctx},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(in.CustomerID),
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSessionResult{}, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return CheckoutSessionResult{ID: session.ID, URL: session.URL}, nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, subscriptionID string) (ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{Params: stripe.Params{Context: ctx}}

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return ProviderSubscription{}, fmt.Errorf("stripe get subscription: %w", err)
	}
	return providerSubscriptionFromStripe(sub), nil
}

func (p *StripeProvider) VerifyEvent(payload []byte, signatureHeader string) (Event, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, p.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("verify webhook signature: %w", err)
	}
	return Event{
		Kind:   ParseEventKind(string(event.Type)),
		Type:   string(event.Type),
		Object: event.Data.Raw,
	}, nil
}

func providerSubscriptionFromStripe(sub *stripe.Subscription) ProviderSubscription {
	out := ProviderSubscription{
		SubscriptionID:     sub.ID,
		Status:             enums.NormalizeSubscriptionStatus(string(sub.Status)),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CurrentPeriodStart: unixToTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixToTime(sub.CurrentPeriodEnd),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	return out
}
