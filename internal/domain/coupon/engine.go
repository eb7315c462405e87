package coupon

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ValidForAmount reports whether the order total satisfies the coupon's
// minimum purchase requirement.
func ValidForAmount(c *Coupon, amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(c.MinimumPurchase)
}

// UsableBy checks whether the coupon can be redeemed at the given moment by
// the user whose ledger aggregates are in counts. Checks run in a fixed order
// with short-circuit semantics, so the returned sentinel is always the first
// failing reason: active flag, validity window, global limit, per-user limit.
func UsableBy(c *Coupon, counts UsageCounts, now time.Time) error {
	if !c.Active {
		return ErrInactive
	}
	if now.Before(c.StartDate) {
		return ErrNotYetActive
	}
	if now.After(c.EndDate) {
		return ErrExpired
	}
	if remaining, limited := RemainingUsage(c, counts.Total); limited && remaining <= 0 {
		return ErrUsageLimitReached
	}
	if c.UsageLimitPerUser > 0 && counts.ByUser >= c.UsageLimitPerUser {
		return ErrUserLimitReached
	}
	return nil
}

// Discount computes the amount deducted from the given order total.
//
// Percentage coupons deduct total*value/100, capped at MaximumDiscount when a
// cap is set. Fixed coupons deduct min(value, total) so an order never goes
// negative. The result is clamped to [0, orderTotal] and rounded to 2 places.
func Discount(c *Coupon, orderTotal decimal.Decimal) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch c.Type {
	case TypePercentage:
		amount = orderTotal.Mul(c.Value).Div(hundred)
		if !c.MaximumDiscount.IsZero() && amount.GreaterThan(c.MaximumDiscount) {
			amount = c.MaximumDiscount
		}
	case TypeFixed:
		amount = decimal.Min(c.Value, orderTotal)
	default:
		return decimal.Zero, errors.Errorf("unsupported coupon type: %q", c.Type)
	}

	if amount.IsNegative() {
		amount = decimal.Zero
	}
	if amount.GreaterThan(orderTotal) {
		amount = orderTotal
	}
	return amount.Round(2), nil
}

// RemainingUsage returns how many global redemptions are left. The second
// return value is false when the coupon has no global limit, in which case
// the count is meaningless.
func RemainingUsage(c *Coupon, totalUses int) (int, bool) {
	if c.UsageLimit <= 0 {
		return 0, false
	}
	remaining := c.UsageLimit - totalUses
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}
