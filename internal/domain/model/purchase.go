package model

import (
	"time"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
)

// Purchase records one completed item transaction. Rows are created only by
// the webhook reconciler after the provider confirms payment, never at
// checkout time, and are immutable apart from status transitions.
type Purchase struct {
	ID                  int64                `json:"id"`
	BuyerID             int64                `json:"buyer_id"`
	SellerID            int64                `json:"seller_id"`
	ItemType            enums.ItemType       `json:"item_type"`
	ItemID              int64                `json:"item_id"`
	AmountCents         int64                `json:"amount_cents"`
	PlatformFeeCents    int64                `json:"platform_fee_cents"`
	SellerEarningsCents int64                `json:"seller_earnings_cents"`
	PaymentIntentID     string               `json:"stripe_payment_intent_id"`
	Status              enums.PurchaseStatus `json:"status"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}
