package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported coupon discount strategies.
type Type string

const (
	// TypePercentage deducts a percentage of the order total.
	TypePercentage Type = "percentage"
	// TypeFixed deducts a fixed monetary amount capped at the order total.
	TypeFixed Type = "fixed"
)

// Rejection sentinels, one per ineligibility reason so callers can surface a
// precise message. UsableBy returns the first failing check.
var (
	// ErrNotFound is returned when a coupon code does not exist.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when a coupon has been disabled by an administrator.
	ErrInactive = errors.New("coupon inactive")
	// ErrNotYetActive is returned before a coupon's start date.
	ErrNotYetActive = errors.New("coupon not yet active")
	// ErrExpired is returned after a coupon's end date.
	ErrExpired = errors.New("coupon expired")
	// ErrMinimumPurchase is returned when an order total is below the coupon's minimum.
	ErrMinimumPurchase = errors.New("minimum purchase not met")
	// ErrUsageLimitReached is returned when a coupon has no remaining global uses.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrUserLimitReached is returned when the requesting user has exhausted
	// their personal allowance for a coupon.
	ErrUserLimitReached = errors.New("per-user usage limit reached")
)

// Coupon is a discount rule identified by a code. Zero values on the limit
// fields mean unlimited: UsageLimit == 0 allows any number of redemptions and
// MaximumDiscount.IsZero() leaves percentage discounts uncapped. StartDate and
// EndDate are always set; EndDate is strictly after StartDate.
type Coupon struct {
	ID                uuid.UUID
	Code              string
	Type              Type
	Value             decimal.Decimal
	MinimumPurchase   decimal.Decimal
	MaximumDiscount   decimal.Decimal
	UsageLimit        int
	UsageLimitPerUser int
	StartDate         time.Time
	EndDate           time.Time
	Active            bool
	CreatedAt         time.Time
}

// UsageCounts holds ledger aggregates for one coupon, as seen at a single
// point in time. Total counts every redemption; ByUser counts only those by
// the requesting user.
type UsageCounts struct {
	Total  int
	ByUser int
}

// Repository provides lookup of coupons by their code.
type Repository interface {
	// FindByCode returns the coupon for the given code, case-insensitively.
	// Returns ErrNotFound when no such coupon exists.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}
