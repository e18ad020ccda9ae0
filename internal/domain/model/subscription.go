package model

import (
	"time"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
)

// Subscription mirrors the provider-side recurring billing relationship.
// Rows are keyed by the provider subscription id and are logically closed
// (status canceled), never physically deleted.
// SubscriptionSnapshot is the provider's authoritative view of one
// subscription at a point in time, as carried by webhook events and refetch
// calls.
type SubscriptionSnapshot struct {
	SubscriptionID     string
	CustomerID         string
	Status             enums.SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
}

type Subscription struct {
	ID                 int64                    `json:"id"`
	UserID             int64                    `json:"user_id"`
	SubscriptionID     string                   `json:"stripe_subscription_id"`
	Status             enums.SubscriptionStatus `json:"status"`
	CurrentPeriodStart time.Time                `json:"current_period_start"`
	CurrentPeriodEnd   time.Time                `json:"current_period_end"`
	CancelAtPeriodEnd  bool                     `json:"cancel_at_period_end"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}
