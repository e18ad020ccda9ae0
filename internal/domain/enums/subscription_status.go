package enums

import "strings"

type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
)

// NormalizeSubscriptionStatus copies provider-reported statuses verbatim.
// Unexpected values are kept as-is so a provider-side status we have not
// modeled never blocks reconciliation; callers log them as anomalies.
func NormalizeSubscriptionStatus(raw string) SubscriptionStatus {
	return SubscriptionStatus(strings.ToLower(strings.TrimSpace(raw)))
}

func (s SubscriptionStatus) IsActive() bool {
	return s == SubscriptionStatusActive
}

func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCanceled
}
