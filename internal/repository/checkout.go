package repository

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopverse/checkout/internal/domain/checkout"
	"github.com/shopverse/checkout/internal/domain/coupon"
	"github.com/shopverse/checkout/internal/domain/ledger"
	"github.com/shopverse/checkout/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, user_id, items, subtotal, discount, total, coupon_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	// FOR UPDATE serializes concurrent commits on the same coupon; the limits
	// are re-read here rather than trusted from the caller so admin edits
	// between validate and commit are honored.
	lockCouponSQL = `SELECT usage_limit, usage_limit_per_user
		FROM coupons WHERE id = $1 FOR UPDATE`
)

var _ checkout.Store = (*CheckoutRepository)(nil)

// CheckoutRepository persists checkout outcomes: plain orders, and
// coupon-bearing orders committed atomically with their ledger entry.
type CheckoutRepository struct {
	pool *pgxpool.Pool
}

// NewCheckoutRepository returns a CheckoutRepository that uses the given pool.
func NewCheckoutRepository(pool *pgxpool.Pool) *CheckoutRepository {
	return &CheckoutRepository{pool: pool}
}

// CreateOrder persists an order that carries no coupon. Line items are
// serialized to JSON for the JSONB column.
func (r *CheckoutRepository) CreateOrder(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshaling order items")
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, items, o.Subtotal, o.Discount, o.Total,
		nullableID(o.CouponCode), o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "creating order %q", o.ID)
	}
	return nil
}

// CommitRedemption writes the order and its ledger entry in one transaction.
// The coupon row is locked first and the usage limits are re-checked against
// fresh ledger counts under that lock, so two commits racing for the last
// remaining use serialize and exactly one of them succeeds. A failed
// re-check aborts the transaction with the engine's limit sentinel and
// leaves no partial state.
func (r *CheckoutRepository) CommitRedemption(ctx context.Context, o *order.Order, u *ledger.Usage) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin commit transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var usageLimit, perUserLimit *int32
	err = tx.QueryRow(ctx, lockCouponSQL, u.CouponID.String()).Scan(&usageLimit, &perUserLimit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.ErrNotFound
		}
		return errors.Wrap(err, "lock coupon row")
	}

	if usageLimit != nil {
		var total int
		if err := tx.QueryRow(ctx, countForCouponSQL, u.CouponID.String()).Scan(&total); err != nil {
			return errors.Wrap(err, "recount coupon usage")
		}
		if total >= int(*usageLimit) {
			return coupon.ErrUsageLimitReached
		}
	}
	if perUserLimit != nil {
		var byUser int
		if err := tx.QueryRow(ctx, countForUserSQL, u.CouponID.String(), u.UserID).Scan(&byUser); err != nil {
			return errors.Wrap(err, "recount user usage")
		}
		if byUser >= int(*perUserLimit) {
			return coupon.ErrUserLimitReached
		}
	}

	items, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshaling order items")
	}

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, items, o.Subtotal, o.Discount, o.Total,
		nullableID(o.CouponCode), o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "creating order %q", o.ID)
	}

	if err := insertUsage(ctx, tx, u); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}
