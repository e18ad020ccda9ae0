package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
)

func eventPayload(t *testing.T, eventType string, object any) []byte {
	t.Helper()

	raw, err := json.Marshal(object)
	if err != nil {
		t.Fatalf("marshal event object: %v", err)
	}
	payload, err := json.Marshal(stubEnvelope{Type: eventType, Object: raw})
	if err != nil {
		t.Fatalf("marshal event envelope: %v", err)
	}
	return payload
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	fx := newBillingFixture()

	_, err := fx.svc.ProcessWebhook(context.Background(), []byte(`{}`), "bad")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestWebhookAcknowledgesUnknownEventType(t *testing.T) {
	fx := newBillingFixture()

	outcome, err := fx.svc.ProcessWebhook(context.Background(),
		eventPayload(t, "charge.refunded", map[string]string{"id": "ch_1"}), "ok")
	if err != nil {
		t.Fatalf("unknown event type should ack cleanly: %v", err)
	}
	if !outcome.Ignored || outcome.Kind != EventKindUnknown {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if fx.purchases.count() != 0 {
		t.Fatalf("unknown event must not mutate state")
	}
}

func TestCheckoutSessionCompletedActivatesSubscription(t *testing.T) {
	buyer := model.User{ID: 7, Email: "buyer@example.com", StripeCustomerID: "cus_7"}
	fx := newBillingFixture(buyer)

	periodEnd := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	fx.provider.getSubscription = func(id string) (ProviderSubscription, error) {
		return ProviderSubscription{
			SubscriptionID:   id,
			CustomerID:       "cus_7",
			Status:           enums.SubscriptionStatusActive,
			CurrentPeriodEnd: periodEnd,
		}, nil
	}

	outcome, err := fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "checkout.session.completed",
		checkoutSessionObject{ID: "cs_1", Mode: "subscription", Customer: "cus_7", Subscription: "sub_1"}), "ok")
	if err != nil {
		t.Fatalf("process checkout.session.completed: %v", err)
	}
	if outcome.Ignored {
		t.Fatalf("event should apply, outcome: %+v", outcome)
	}

	stored, ok := fx.subscriptions.get("sub_1")
	if !ok {
		t.Fatalf("subscription row was not created")
	}
	if stored.UserID != buyer.ID || stored.Status != enums.SubscriptionStatusActive {
		t.Fatalf("unexpected stored subscription: %+v", stored)
	}
	if !stored.CurrentPeriodEnd.Equal(periodEnd) {
		t.Fatalf("unexpected period end: %s", stored.CurrentPeriodEnd)
	}
	if !fx.users.get(buyer.ID).HasActiveSubscription {
		t.Fatalf("user flag should be active")
	}
}

func TestCheckoutSessionCompletedUnknownCustomerIgnored(t *testing.T) {
	fx := newBillingFixture()

	outcome, err := fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "checkout.session.completed",
		checkoutSessionObject{ID: "cs_1", Mode: "subscription", Customer: "cus_ghost", Subscription: "sub_1"}), "ok")
	if err != nil {
		t.Fatalf("unknown customer should ack cleanly: %v", err)
	}
	if !outcome.Ignored {
		t.Fatalf("expected ignored outcome, got %+v", outcome)
	}
	if _, ok := fx.subscriptions.get("sub_1"); ok {
		t.Fatalf("no subscription row should exist")
	}
}

func TestCheckoutSessionProviderFetchExhaustionFailsDelivery(t *testing.T) {
	buyer := model.User{ID: 7, Email: "buyer@example.com", StripeCustomerID: "cus_7"}
	fx := newBillingFixture(buyer)
	fx.provider.getSubscription = func(string) (ProviderSubscription, error) {
		return ProviderSubscription{}, fmt.Errorf("upstream timeout")
	}

	_, err := fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "checkout.session.completed",
		checkoutSessionObject{ID: "cs_1", Mode: "subscription", Customer: "cus_7", Subscription: "sub_1"}), "ok")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable after retries, got %v", err)
	}
	if fx.provider.subscriptionFetches < 2 {
		t.Fatalf("expected retries before giving up, got %d fetches", fx.provider.subscriptionFetches)
	}
	if _, ok := fx.subscriptions.get("sub_1"); ok {
		t.Fatalf("failed delivery must not write a row")
	}
}

func TestInvoicePaymentAdvancesKnownSubscription(t *testing.T) {
	buyer := model.User{ID: 7, StripeCustomerID: "cus_7"}
	fx := newBillingFixture(buyer)

	oldEnd := time.Now().UTC().Truncate(time.Second)
	seedSubscription(t, fx, buyer.ID, "sub_1", enums.SubscriptionStatusActive, oldEnd)

	newEnd := oldEnd.Add(30 * 24 * time.Hour)
	fx.provider.getSubscription = func(id string) (ProviderSubscription, error) {
		return ProviderSubscription{
			SubscriptionID:   id,
			CustomerID:       "cus_7",
			Status:           enums.SubscriptionStatusActive,
			CurrentPeriodEnd: newEnd,
		}, nil
	}

	outcome, err := fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "invoice.payment_succeeded",
		invoiceObject{ID: "in_1", Subscription: "sub_1"}), "ok")
	if err != nil {
		t.Fatalf("process invoice.payment_succeeded: %v", err)
	}
	if outcome.Ignored {
		t.Fatalf("renewal should apply, outcome: %+v", outcome)
	}

	stored, _ := fx.subscriptions.get("sub_1")
	if !stored.CurrentPeriodEnd.Equal(newEnd) {
		t.Fatalf("period end not advanced: %s", stored.CurrentPeriodEnd)
	}
}

func TestInvoiceForUnknownSubscriptionIgnored(t *testing.T) {
	fx := newBillingFixture()

	outcome, err := fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "invoice.payment_succeeded",
		invoiceObject{ID: "in_1", Subscription: "sub_ghost"}), "ok")
	if err != nil {
		t.Fatalf("unknown subscription invoice should ack cleanly: %v", err)
	}
	if !outcome.Ignored {
		t.Fatalf("expected ignored outcome, got %+v", outcome)
	}
	if fx.provider.subscriptionFetches != 0 {
		t.Fatalf("no provider fetch expected for unknown subscription")
	}
}

func TestSubscriptionUpdatedAppliesInPlace(t *testing.T) {
	buyer := model.User{ID: 7, StripeCustomerID: "cus_7"}
	fx := newBillingFixture(buyer)

	end := time.Now().UTC().Truncate(time.Second)
	seedSubscription(t, fx, buyer.ID, "sub_1", enums.SubscriptionStatusActive, end)

	outcome, err := fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "customer.subscription.updated",
		subscriptionObject{
			ID:                 "sub_1",
			Status:             "past_due",
			Customer:           "cus_7",
			CurrentPeriodEnd:   end.Unix(),
			CancelAtPeriodEnd:  true,
		}), "ok")
	if err != nil {
		t.Fatalf("process customer.subscription.updated: %v", err)
	}
	if outcome.Ignored {
		t.Fatalf("update should apply, outcome: %+v", outcome)
	}

	stored, _ := fx.subscriptions.get("sub_1")
	if stored.Status != enums.SubscriptionStatusPastDue || !stored.CancelAtPeriodEnd {
		t.Fatalf("unexpected stored subscription: %+v", stored)
	}
	if fx.users.get(buyer.ID).HasActiveSubscription {
		t.Fatalf("past_due subscription should clear the active flag")
	}
}

func TestSubscriptionUpdatedUnknownRefCreatesNothing(t *testing.T) {
	fx := newBillingFixture()

	outcome, err := fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "customer.subscription.updated",
		subscriptionObject{ID: "sub_ghost", Status: "active", CurrentPeriodEnd: time.Now().Unix()}), "ok")
	if err != nil {
		t.Fatalf("unknown subscription update should ack cleanly: %v", err)
	}
	if !outcome.Ignored {
		t.Fatalf("expected ignored outcome, got %+v", outcome)
	}
	if _, ok := fx.subscriptions.get("sub_ghost"); ok {
		t.Fatalf("update events must never create rows")
	}
}

func TestStaleSubscriptionUpdateIgnored(t *testing.T) {
	buyer := model.User{ID: 7, StripeCustomerID: "cus_7"}
	fx := newBillingFixture(buyer)

	end := time.Now().Add(60 * 24 * time.Hour).UTC().Truncate(time.Second)
	seedSubscription(t, fx, buyer.ID, "sub_1", enums.SubscriptionStatusActive, end)

	outcome, err := fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "customer.subscription.updated",
		subscriptionObject{
			ID:               "sub_1",
			Status:           "incomplete",
			CurrentPeriodEnd: end.Add(-30 * 24 * time.Hour).Unix(),
		}), "ok")
	if err != nil {
		t.Fatalf("stale update should ack cleanly: %v", err)
	}
	if !outcome.Ignored {
		t.Fatalf("expected ignored outcome, got %+v", outcome)
	}

	stored, _ := fx.subscriptions.get("sub_1")
	if stored.Status != enums.SubscriptionStatusActive || !stored.CurrentPeriodEnd.Equal(end) {
		t.Fatalf("stale snapshot overwrote newer row: %+v", stored)
	}
}

func TestSubscriptionDeletedIsTerminal(t *testing.T) {
	buyer := model.User{ID: 7, StripeCustomerID: "cus_7"}
	fx := newBillingFixture(buyer)

	end := time.Now().UTC().Truncate(time.Second)
	seedSubscription(t, fx, buyer.ID, "sub_1", enums.SubscriptionStatusActive, end)

	outcome, err := fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "customer.subscription.deleted",
		subscriptionObject{ID: "sub_1", Status: "canceled"}), "ok")
	if err != nil {
		t.Fatalf("process customer.subscription.deleted: %v", err)
	}
	if outcome.Ignored {
		t.Fatalf("delete should apply, outcome: %+v", outcome)
	}

	stored, _ := fx.subscriptions.get("sub_1")
	if stored.Status != enums.SubscriptionStatusCanceled {
		t.Fatalf("subscription should be canceled: %+v", stored)
	}
	if fx.users.get(buyer.ID).HasActiveSubscription {
		t.Fatalf("canceled subscription should clear the active flag")
	}

	// Resurrection attempt with a newer period must bounce off the
	// terminal state.
	outcome, err = fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "customer.subscription.updated",
		subscriptionObject{ID: "sub_1", Status: "active", CurrentPeriodEnd: end.Add(90 * 24 * time.Hour).Unix()}), "ok")
	if err != nil {
		t.Fatalf("post-cancel update should ack cleanly: %v", err)
	}
	if !outcome.Ignored {
		t.Fatalf("canceled subscription must not be resurrected: %+v", outcome)
	}
	stored, _ = fx.subscriptions.get("sub_1")
	if stored.Status != enums.SubscriptionStatusCanceled {
		t.Fatalf("canceled row was overwritten: %+v", stored)
	}
}

func TestPaymentIntentSucceededRecordsPurchaseOnce(t *testing.T) {
	buyer := model.User{ID: 2, StripeCustomerID: "cus_2"}
	seller := model.User{ID: 1}
	fx := newBillingFixture(buyer, seller)

	object := paymentIntentObject{
		ID:       "pi_1",
		Amount:   2500,
		Customer: "cus_2",
		Metadata: IntentMetadata{
			ItemType: enums.ItemTypeBake,
			ItemID:   10,
			SellerID: seller.ID,
			BuyerID:  buyer.ID,
		}.ToMap(),
	}

	outcome, err := fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "payment_intent.succeeded", object), "ok")
	if err != nil {
		t.Fatalf("process payment_intent.succeeded: %v", err)
	}
	if outcome.Ignored {
		t.Fatalf("purchase should be recorded, outcome: %+v", outcome)
	}

	purchase, _, err := fx.purchases.CreateFromIntent(context.Background(), model.Purchase{
		PaymentIntentID: "pi_1", BuyerID: buyer.ID, SellerID: seller.ID, ItemID: 10,
	})
	if err != nil {
		t.Fatalf("read back purchase: %v", err)
	}
	if purchase.AmountCents != 2500 || purchase.PlatformFeeCents != 250 || purchase.SellerEarningsCents != 2250 {
		t.Fatalf("unexpected fee split: %+v", purchase)
	}
	if purchase.Status != enums.PurchaseStatusCompleted {
		t.Fatalf("unexpected status: %s", purchase.Status)
	}

	// Redelivery acknowledges without a second row.
	outcome, err = fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "payment_intent.succeeded", object), "ok")
	if err != nil {
		t.Fatalf("duplicate delivery should ack cleanly: %v", err)
	}
	if !outcome.Ignored {
		t.Fatalf("duplicate delivery should be ignored: %+v", outcome)
	}
	if fx.purchases.count() != 1 {
		t.Fatalf("expected one purchase row, got %d", fx.purchases.count())
	}
}

func TestPaymentIntentUnknownPartyIgnored(t *testing.T) {
	buyer := model.User{ID: 2, StripeCustomerID: "cus_2"}
	seller := model.User{ID: 1}
	fx := newBillingFixture(buyer, seller)

	intent := func(id string, sellerID, buyerID int64) paymentIntentObject {
		return paymentIntentObject{
			ID:     id,
			Amount: 1200,
			Metadata: IntentMetadata{
				ItemType: enums.ItemTypeBake,
				ItemID:   10,
				SellerID: sellerID,
				BuyerID:  buyerID,
			}.ToMap(),
		}
	}

	// Seller deleted between checkout and settlement.
	outcome, err := fx.svc.ProcessWebhook(context.Background(),
		eventPayload(t, "payment_intent.succeeded", intent("pi_1", 999, buyer.ID)), "ok")
	if err != nil {
		t.Fatalf("unknown seller should ack cleanly: %v", err)
	}
	if !outcome.Ignored {
		t.Fatalf("expected ignored outcome for unknown seller, got %+v", outcome)
	}

	outcome, err = fx.svc.ProcessWebhook(context.Background(),
		eventPayload(t, "payment_intent.succeeded", intent("pi_2", seller.ID, 999)), "ok")
	if err != nil {
		t.Fatalf("unknown buyer should ack cleanly: %v", err)
	}
	if !outcome.Ignored {
		t.Fatalf("expected ignored outcome for unknown buyer, got %+v", outcome)
	}

	if fx.purchases.count() != 0 {
		t.Fatalf("intents referencing unknown users must not create purchases, got %d rows", fx.purchases.count())
	}
}

func TestPaymentIntentWithForeignMetadataIgnored(t *testing.T) {
	fx := newBillingFixture()

	outcome, err := fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "payment_intent.succeeded",
		paymentIntentObject{ID: "pi_other", Amount: 900, Metadata: map[string]string{"order": "123"}}), "ok")
	if err != nil {
		t.Fatalf("foreign intent should ack cleanly: %v", err)
	}
	if !outcome.Ignored {
		t.Fatalf("expected ignored outcome, got %+v", outcome)
	}
	if fx.purchases.count() != 0 {
		t.Fatalf("foreign intent must not create purchases")
	}
}

func TestPaymentIntentWithMalformedMetadataRejected(t *testing.T) {
	fx := newBillingFixture()

	outcome, err := fx.svc.ProcessWebhook(context.Background(), eventPayload(t, "payment_intent.succeeded",
		paymentIntentObject{
			ID:     "pi_bad",
			Amount: 900,
			Metadata: map[string]string{
				"platform":  "xfood",
				"item_type": "bake",
				"item_id":   "not-a-number",
				"seller_id": "1",
				"buyer_id":  "2",
			},
		}), "ok")
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v (outcome %+v)", err, outcome)
	}
	if fx.purchases.count() != 0 {
		t.Fatalf("malformed intent must not create purchases")
	}
}

func seedSubscription(t *testing.T, fx *billingFixture, userID int64, subscriptionID string, status enums.SubscriptionStatus, periodEnd time.Time) {
	t.Helper()

	_, applied, err := fx.subscriptions.UpsertFromProvider(context.Background(), userID, model.SubscriptionSnapshot{
		SubscriptionID:   subscriptionID,
		Status:           status,
		CurrentPeriodEnd: periodEnd,
	})
	if err != nil || !applied {
		t.Fatalf("seed subscription: applied=%v err=%v", applied, err)
	}
}
