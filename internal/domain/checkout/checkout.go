// Package checkout applies a coupon to an order: it quotes a discount for a
// prospective total (Evaluate) and finalizes an order together with its
// ledger entry in one atomic commit (Commit).
package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/shopverse/checkout/internal/domain/coupon"
	"github.com/shopverse/checkout/internal/domain/ledger"
	"github.com/shopverse/checkout/internal/domain/order"
)

// Validation sentinels: malformed input, surfaced immediately, never retried.
var (
	ErrMissingUser    = errors.New("user id required")
	ErrMissingCode    = errors.New("coupon code required")
	ErrNegativeAmount = errors.New("order total must not be negative")
)

// ErrConflict is returned when commit-time revalidation finds the coupon's
// remaining usage consumed by a concurrent redemption. It is distinct from a
// rejection so callers can offer a different coupon instead of retrying.
var ErrConflict = errors.New("coupon exhausted by a concurrent redemption")

// RejectedError is a business-rule ineligibility with a user-displayable
// reason. It is not retryable with the same inputs.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

// rejectionReason maps an engine sentinel to the reason string surfaced to
// users. Unknown errors map to ok=false so they propagate as failures.
func rejectionReason(err error) (string, bool) {
	for _, sentinel := range []error{
		coupon.ErrNotFound,
		coupon.ErrInactive,
		coupon.ErrNotYetActive,
		coupon.ErrExpired,
		coupon.ErrMinimumPurchase,
		coupon.ErrUsageLimitReached,
		coupon.ErrUserLimitReached,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error(), true
		}
	}
	return "", false
}

// Evaluation is the read-only answer to "what would this coupon do for this
// order". Reason is set only when Eligible is false.
type Evaluation struct {
	Eligible       bool
	Reason         string
	DiscountAmount decimal.Decimal
	FinalTotal     decimal.Decimal
}

// CommitRequest finalizes one order, optionally redeeming a coupon.
// OrderID may be empty; a fresh id is generated. OrderTotal is the
// pre-discount subtotal supplied by the pricing collaborator.
type CommitRequest struct {
	UserID     string
	OrderID    string
	Items      []order.Item
	OrderTotal decimal.Decimal
	CouponCode string
}

// Receipt is the outcome of a committed checkout.
type Receipt struct {
	OrderID        string
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalTotal     decimal.Decimal
}

// Store persists checkout outcomes.
//
// CommitRedemption must write the order and the ledger entry in a single
// transaction that re-derives the usage counts under a lock on the coupon row
// and re-checks the limits as of commit time. When a limit is exhausted at
// that point it returns coupon.ErrUsageLimitReached or
// coupon.ErrUserLimitReached and writes nothing.
type Store interface {
	CreateOrder(ctx context.Context, o *order.Order) error
	CommitRedemption(ctx context.Context, o *order.Order, u *ledger.Usage) error
}
