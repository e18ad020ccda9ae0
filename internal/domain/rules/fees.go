package rules

const (
	// DefaultCommissionBPS is the platform commission in basis points (10%).
	DefaultCommissionBPS = 1000

	bpsDenominator = 10000
)

// PlatformFee computes the platform commission for a gross amount in minor
// currency units. Integer arithmetic only; the result is floored so the fee
// never exceeds the gross amount.
func PlatformFee(grossCents int64, commissionBPS int64) int64 {
	if grossCents <= 0 || commissionBPS <= 0 {
		return 0
	}
	if commissionBPS > bpsDenominator {
		commissionBPS = bpsDenominator
	}
	return grossCents * commissionBPS / bpsDenominator
}

// SellerEarnings is the gross amount minus the platform fee.
func SellerEarnings(grossCents int64, commissionBPS int64) int64 {
	if grossCents <= 0 {
		return 0
	}
	return grossCents - PlatformFee(grossCents, commissionBPS)
}
