// Package ledger holds the append-only record of coupon redemptions.
//
// Usage counts are never stored as mutable counters; every limit check
// derives them from the ledger so the aggregate cannot drift from the
// entries it summarizes.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Usage is one redemption of one coupon by one user. Entries are immutable
// once recorded: they are only ever read back for aggregate counts.
//
// OrderID is empty when the redemption was recorded before the order row was
// persisted; it is stored as NULL in that case.
type Usage struct {
	ID             uuid.UUID
	CouponID       uuid.UUID
	UserID         string
	OrderID        string
	DiscountAmount decimal.Decimal
	OrderTotal     decimal.Decimal
	UsedAt         time.Time
}

// Repository provides append and aggregate operations over the ledger.
type Repository interface {
	// Record appends one usage entry. A non-empty OrderID must reference an
	// existing order; referential violations are returned, never dropped.
	Record(ctx context.Context, u *Usage) error

	// CountForCoupon returns the total number of redemptions of a coupon.
	CountForCoupon(ctx context.Context, couponID uuid.UUID) (int, error)

	// CountForUser returns how many times one user has redeemed a coupon.
	CountForUser(ctx context.Context, couponID uuid.UUID, userID string) (int, error)
}
