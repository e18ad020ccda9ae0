package billing

import (
	"time"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
)

func unixToTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func providerSubscriptionFromObject(object subscriptionObject) ProviderSubscription {
	return ProviderSubscription{
		SubscriptionID:     object.ID,
		CustomerID:         object.Customer,
		Status:             enums.NormalizeSubscriptionStatus(object.Status),
		CurrentPeriodStart: unixToTime(object.CurrentPeriodStart),
		CurrentPeriodEnd:   unixToTime(object.CurrentPeriodEnd),
		CancelAtPeriodEnd:  object.CancelAtPeriodEnd,
	}
}

func newPurchaseFromIntent(intent paymentIntentObject, meta IntentMetadata, feeCents int64, now time.Time) model.Purchase {
	return model.Purchase{
		BuyerID:             meta.BuyerID,
		SellerID:            meta.SellerID,
		ItemType:            meta.ItemType,
		ItemID:              meta.ItemID,
		AmountCents:         intent.Amount,
		PlatformFeeCents:    feeCents,
		SellerEarningsCents: intent.Amount - feeCents,
		Status:              enums.PurchaseStatusCompleted,
		PaymentIntentID:     intent.ID,
		CreatedAt:           now,
	}
}
