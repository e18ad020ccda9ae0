package billing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
)

// EventKind is the closed set of provider event types the reconciler acts
// on. Anything else maps to EventKindUnknown and is acknowledged untouched
// so provider-added event types never break the endpoint.
type EventKind int

const (
	EventKindUnknown EventKind = iota
	EventKindCheckoutSessionCompleted
	EventKindInvoicePaymentSucceeded
	EventKindSubscriptionUpdated
	EventKindSubscriptionDeleted
	EventKindPaymentIntentSucceeded
)

func ParseEventKind(eventType string) EventKind {
	switch eventType {
	case "checkout.session.completed":
		return EventKindCheckoutSessionCompleted
	case "invoice.payment_succeeded":
		return EventKindInvoicePaymentSucceeded
	case "customer.subscription.updated":
		return EventKindSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventKindSubscriptionDeleted
	case "payment_intent.succeeded":
		return EventKindPaymentIntentSucceeded
	default:
		return EventKindUnknown
	}
}

func (k EventKind) String() string {
	switch k {
	case EventKindCheckoutSessionCompleted:
		return "checkout_session_completed"
	case EventKindInvoicePaymentSucceeded:
		return "invoice_payment_succeeded"
	case EventKindSubscriptionUpdated:
		return "subscription_updated"
	case EventKindSubscriptionDeleted:
		return "subscription_deleted"
	case EventKindPaymentIntentSucceeded:
		return "payment_intent_succeeded"
	default:
		return "unknown"
	}
}

const platformTag = "xfood"

// IntentMetadata is the structured payload attached to item-purchase payment
// intents. The provider round-trips it as loose string pairs; ParseIntentMetadata
// validates it once at the webhook boundary.
type IntentMetadata struct {
	ItemType enums.ItemType
	ItemID   int64
	SellerID int64
	BuyerID  int64
}

func (m IntentMetadata) ToMap() map[string]string {
	return map[string]string{
		"platform":  platformTag,
		"item_type": string(m.ItemType),
		"item_id":   strconv.FormatInt(m.ItemID, 10),
		"seller_id": strconv.FormatInt(m.SellerID, 10),
		"buyer_id":  strconv.FormatInt(m.BuyerID, 10),
	}
}

// ParseIntentMetadata reports ok=false when the metadata does not belong to
// this platform's item purchases at all, and an error when it does but is
// malformed.
func ParseIntentMetadata(raw map[string]string) (IntentMetadata, bool, error) {
	if raw == nil || raw["platform"] != platformTag || strings.TrimSpace(raw["item_type"]) == "" {
		return IntentMetadata{}, false, nil
	}

	itemType, ok := enums.ParseItemType(raw["item_type"])
	if !ok {
		return IntentMetadata{}, true, fmt.Errorf("%w: unknown item_type %q", ErrMalformedPayload, raw["item_type"])
	}

	itemID, err := parseMetadataID(raw, "item_id")
	if err != nil {
		return IntentMetadata{}, true, err
	}
	sellerID, err := parseMetadataID(raw, "seller_id")
	if err != nil {
		return IntentMetadata{}, true, err
	}
	buyerID, err := parseMetadataID(raw, "buyer_id")
	if err != nil {
		return IntentMetadata{}, true, err
	}

	return IntentMetadata{
		ItemType: itemType,
		ItemID:   itemID,
		SellerID: sellerID,
		BuyerID:  buyerID,
	}, true, nil
}

func parseMetadataID(raw map[string]string, key string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw[key]), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad %s %q", ErrMalformedPayload, key, raw[key])
	}
	return id, nil
}

// Wire shapes of the event objects the reconciler consumes. Only the fields
// we act on are declared; the provider may send more.

type checkoutSessionObject struct {
	ID           string `json:"id"`
	Mode         string `json:"mode"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

type invoiceObject struct {
	ID           string `json:"id"`
	Subscription string `json:"subscription"`
}

type subscriptionObject struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	Customer           string `json:"customer"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
}

type paymentIntentObject struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Customer string            `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

func decodeObject(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty event object", ErrMalformedPayload)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
