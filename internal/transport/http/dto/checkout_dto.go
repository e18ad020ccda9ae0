package dto

import "github.com/GarryCodespace/xFood-Web/internal/domain/model"

type ItemCheckoutRequest struct {
	ItemType string `json:"item_type"`
	ItemID   int64  `json:"item_id"`
}

type ItemCheckoutResponse struct {
	PaymentIntentID     string `json:"payment_intent_id"`
	ClientSecret        string `json:"client_secret"`
	AmountCents         int64  `json:"amount_cents"`
	PlatformFeeCents    int64  `json:"platform_fee_cents"`
	SellerEarningsCents int64  `json:"seller_earnings_cents"`
}

type SubscriptionCheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

type PurchaseListResponse struct {
	Purchases []model.Purchase `json:"purchases"`
}

type WebhookAckResponse struct {
	Received bool `json:"received"`
}
