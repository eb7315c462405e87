package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopverse/checkout/internal/domain/coupon"
)

const getCouponByCodeSQL = `SELECT id, code, discount_type, value, minimum_purchase,
	maximum_discount, usage_limit, usage_limit_per_user,
	start_date, end_date, active, created_at
	FROM coupons WHERE UPPER(code) = UPPER($1)`

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code (case-insensitive).
// Returns coupon.ErrNotFound when no such coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "finding coupon by code %q", code)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, errors.Wrapf(err, "finding coupon by code %q", code)
	}
	return &c, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		id           string
		discountType string
		maxDiscount  decimal.NullDecimal
		usageLimit   *int32
		perUserLimit *int32
		startDate    time.Time
		endDate      time.Time
	)
	err := row.Scan(
		&id, &c.Code, &discountType, &c.Value, &c.MinimumPurchase,
		&maxDiscount, &usageLimit, &perUserLimit,
		&startDate, &endDate, &c.Active, &c.CreatedAt,
	)
	if err != nil {
		return c, err
	}

	c.ID, err = uuid.Parse(id)
	if err != nil {
		return c, errors.Wrap(err, "parse coupon id")
	}
	c.Type = coupon.Type(discountType)
	if maxDiscount.Valid {
		c.MaximumDiscount = maxDiscount.Decimal
	}
	if usageLimit != nil {
		c.UsageLimit = int(*usageLimit)
	}
	if perUserLimit != nil {
		c.UsageLimitPerUser = int(*perUserLimit)
	}
	c.StartDate = startDate
	c.EndDate = endDate
	return c, nil
}
