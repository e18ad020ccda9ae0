package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/GarryCodespace/xFood-Web/internal/domain/rules"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
)

// WebhookOutcome summarizes one processed delivery for logging and the
// handler response.
type WebhookOutcome struct {
	Kind    EventKind
	Action  string
	Ignored bool
}

// ProcessWebhook verifies and reconciles one provider delivery. Deliveries
// are at-least-once and unordered, so every branch is idempotent: duplicates
// and stale snapshots acknowledge without mutating, unknown event types and
// unknown references acknowledge untouched, and only transient storage or
// provider failures return an error so the provider redelivers.
func (s *Service) ProcessWebhook(ctx context.Context, payload []byte, signatureHeader string) (WebhookOutcome, error) {
	event, err := s.provider.VerifyEvent(payload, signatureHeader)
	if err != nil {
		return WebhookOutcome{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	log := s.log.With(zap.String("event_type", event.Type), zap.String("event_kind", event.Kind.String()))

	switch event.Kind {
	case EventKindCheckoutSessionCompleted:
		return s.handleCheckoutSessionCompleted(ctx, log, event)
	case EventKindInvoicePaymentSucceeded:
		return s.handleInvoicePaymentSucceeded(ctx, log, event)
	case EventKindSubscriptionUpdated:
		return s.handleSubscriptionUpdated(ctx, log, event)
	case EventKindSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, log, event)
	case EventKindPaymentIntentSucceeded:
		return s.handlePaymentIntentSucceeded(ctx, log, event)
	default:
		log.Debug("ignoring unknown webhook event type")
		return WebhookOutcome{Kind: EventKindUnknown, Action: "ignored_unknown_type", Ignored: true}, nil
	}
}

func (s *Service) handleCheckoutSessionCompleted(ctx context.Context, log *zap.Logger, event Event) (WebhookOutcome, error) {
	outcome := WebhookOutcome{Kind: event.Kind}

	var session checkoutSessionObject
	if err := decodeObject(event.Object, &session); err != nil {
		return outcome, err
	}
	if session.Mode != "subscription" || session.Subscription == "" {
		outcome.Action, outcome.Ignored = "ignored_non_subscription_session", true
		return outcome, nil
	}
	if session.Customer == "" {
		log.Warn("checkout session without customer ref", zap.String("session_id", session.ID))
		outcome.Action, outcome.Ignored = "ignored_missing_customer", true
		return outcome, nil
	}

	user, err := s.users.FindByStripeCustomerID(ctx, session.Customer)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			log.Warn("checkout session for unknown customer", zap.String("customer_id", session.Customer))
			outcome.Action, outcome.Ignored = "ignored_unknown_customer", true
			return outcome, nil
		}
		return outcome, fmt.Errorf("find user by customer ref: %w", err)
	}

	sub, err := s.getSubscriptionWithRetry(ctx, session.Subscription)
	if err != nil {
		return outcome, fmt.Errorf("%w: fetch subscription %s: %v", ErrProviderUnavailable, session.Subscription, err)
	}

	stored, applied, err := s.subscriptions.UpsertFromProvider(ctx, user.ID, sub)
	if err != nil {
		return outcome, fmt.Errorf("upsert subscription: %w", err)
	}
	if !applied {
		log.Info("subscription snapshot stale, keeping stored row",
			zap.String("subscription_id", sub.SubscriptionID),
			zap.String("stored_status", string(stored.Status)),
		)
		outcome.Action, outcome.Ignored = "ignored_stale_snapshot", true
		return outcome, nil
	}

	log.Info("subscription activated from checkout",
		zap.Int64("user_id", user.ID),
		zap.String("subscription_id", sub.SubscriptionID),
		zap.String("status", string(sub.Status)),
	)
	outcome.Action = "subscription_upserted"
	return outcome, nil
}

func (s *Service) handleInvoicePaymentSucceeded(ctx context.Context, log *zap.Logger, event Event) (WebhookOutcome, error) {
	outcome := WebhookOutcome{Kind: event.Kind}

	var invoice invoiceObject
	if err := decodeObject(event.Object, &invoice); err != nil {
		return outcome, err
	}
	if invoice.Subscription == "" {
		outcome.Action, outcome.Ignored = "ignored_non_subscription_invoice", true
		return outcome, nil
	}

	if _, err := s.subscriptions.FindByProviderID(ctx, invoice.Subscription); err != nil {
		if errors.Is(err, pgrepo.ErrSubscriptionNotFound) {
			// Renewal invoices can race the checkout event; the checkout
			// handler owns row creation.
			log.Info("invoice for unknown subscription", zap.String("subscription_id", invoice.Subscription))
			outcome.Action, outcome.Ignored = "ignored_unknown_subscription", true
			return outcome, nil
		}
		return outcome, fmt.Errorf("find subscription: %w", err)
	}

	sub, err := s.getSubscriptionWithRetry(ctx, invoice.Subscription)
	if err != nil {
		return outcome, fmt.Errorf("%w: fetch subscription %s: %v", ErrProviderUnavailable, invoice.Subscription, err)
	}

	_, applied, err := s.subscriptions.UpsertFromProvider(ctx, 0, sub)
	if err != nil {
		return outcome, fmt.Errorf("upsert subscription: %w", err)
	}
	if !applied {
		outcome.Action, outcome.Ignored = "ignored_stale_snapshot", true
		return outcome, nil
	}

	log.Info("subscription period advanced",
		zap.String("subscription_id", sub.SubscriptionID),
		zap.Time("current_period_end", sub.CurrentPeriodEnd),
	)
	outcome.Action = "subscription_period_advanced"
	return outcome, nil
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, log *zap.Logger, event Event) (WebhookOutcome, error) {
	outcome := WebhookOutcome{Kind: event.Kind}

	var object subscriptionObject
	if err := decodeObject(event.Object, &object); err != nil {
		return outcome, err
	}
	if object.ID == "" {
		return outcome, fmt.Errorf("%w: subscription event without id", ErrMalformedPayload)
	}

	sub := providerSubscriptionFromObject(object)

	stored, applied, err := s.subscriptions.UpsertFromProvider(ctx, 0, sub)
	if err != nil {
		if errors.Is(err, pgrepo.ErrSubscriptionNotFound) {
			log.Info("update for unknown subscription", zap.String("subscription_id", object.ID))
			outcome.Action, outcome.Ignored = "ignored_unknown_subscription", true
			return outcome, nil
		}
		return outcome, fmt.Errorf("upsert subscription: %w", err)
	}
	if !applied {
		log.Info("stale subscription update",
			zap.String("subscription_id", object.ID),
			zap.String("incoming_status", string(sub.Status)),
			zap.String("stored_status", string(stored.Status)),
		)
		outcome.Action, outcome.Ignored = "ignored_stale_snapshot", true
		return outcome, nil
	}

	log.Info("subscription updated",
		zap.String("subscription_id", sub.SubscriptionID),
		zap.String("status", string(sub.Status)),
		zap.Bool("cancel_at_period_end", sub.CancelAtPeriodEnd),
	)
	outcome.Action = "subscription_updated"
	return outcome, nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, log *zap.Logger, event Event) (WebhookOutcome, error) {
	outcome := WebhookOutcome{Kind: event.Kind}

	var object subscriptionObject
	if err := decodeObject(event.Object, &object); err != nil {
		return outcome, err
	}
	if object.ID == "" {
		return outcome, fmt.Errorf("%w: subscription event without id", ErrMalformedPayload)
	}

	sub, err := s.subscriptions.MarkCanceled(ctx, object.ID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrSubscriptionNotFound) {
			log.Info("delete for unknown subscription", zap.String("subscription_id", object.ID))
			outcome.Action, outcome.Ignored = "ignored_unknown_subscription", true
			return outcome, nil
		}
		return outcome, fmt.Errorf("mark subscription canceled: %w", err)
	}

	log.Info("subscription canceled",
		zap.String("subscription_id", sub.SubscriptionID),
		zap.Int64("user_id", sub.UserID),
	)
	outcome.Action = "subscription_canceled"
	return outcome, nil
}

func (s *Service) handlePaymentIntentSucceeded(ctx context.Context, log *zap.Logger, event Event) (WebhookOutcome, error) {
	outcome := WebhookOutcome{Kind: event.Kind}

	var intent paymentIntentObject
	if err := decodeObject(event.Object, &intent); err != nil {
		return outcome, err
	}
	if intent.ID == "" {
		return outcome, fmt.Errorf("%w: payment intent event without id", ErrMalformedPayload)
	}

	meta, ours, err := ParseIntentMetadata(intent.Metadata)
	if err != nil {
		return outcome, err
	}
	if !ours {
		outcome.Action, outcome.Ignored = "ignored_foreign_intent", true
		return outcome, nil
	}

	if _, err := s.users.FindByID(ctx, meta.BuyerID); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			log.Warn("payment intent references unknown buyer", zap.Int64("buyer_id", meta.BuyerID))
			outcome.Action, outcome.Ignored = "ignored_unknown_buyer", true
			return outcome, nil
		}
		return outcome, fmt.Errorf("find buyer: %w", err)
	}
	if _, err := s.users.FindByID(ctx, meta.SellerID); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			log.Warn("payment intent references unknown seller", zap.Int64("seller_id", meta.SellerID))
			outcome.Action, outcome.Ignored = "ignored_unknown_seller", true
			return outcome, nil
		}
		return outcome, fmt.Errorf("find seller: %w", err)
	}

	fee := rules.PlatformFee(intent.Amount, s.commissionBPS)
	purchase, created, err := s.purchases.CreateFromIntent(ctx, newPurchaseFromIntent(intent, meta, fee, s.now()))
	if err != nil {
		return outcome, fmt.Errorf("record purchase: %w", err)
	}
	if !created {
		log.Info("duplicate payment intent delivery", zap.String("payment_intent_id", intent.ID))
		outcome.Action, outcome.Ignored = "ignored_duplicate_intent", true
		return outcome, nil
	}

	log.Info("purchase recorded",
		zap.Int64("purchase_id", purchase.ID),
		zap.String("payment_intent_id", intent.ID),
		zap.Int64("amount_cents", purchase.AmountCents),
		zap.Int64("platform_fee_cents", purchase.PlatformFeeCents),
	)
	outcome.Action = "purchase_recorded"
	return outcome, nil
}

// getSubscriptionWithRetry refetches the authoritative subscription state,
// absorbing transient provider failures with bounded exponential backoff.
// After exhaustion the caller fails the delivery so the provider redelivers.
func (s *Service) getSubscriptionWithRetry(ctx context.Context, subscriptionID string) (ProviderSubscription, error) {
	var sub ProviderSubscription

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryInitial

	operation := func() error {
		var err error
		sub, err = s.provider.GetSubscription(ctx, subscriptionID)
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, s.retryMax), ctx))
	if err != nil {
		return ProviderSubscription{}, err
	}
	return sub, nil
}
