package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopverse/checkout/internal/domain/ledger"
)

const (
	recordUsageSQL = `INSERT INTO coupon_usages
		(id, coupon_id, user_id, order_id, discount_amount, order_total, used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	countForCouponSQL = `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1`

	countForUserSQL = `SELECT COUNT(*) FROM coupon_usages
		WHERE coupon_id = $1 AND user_id = $2`
)

var _ ledger.Repository = (*LedgerRepository)(nil)

// LedgerRepository implements ledger.Repository backed by PostgreSQL.
// Entries are insert-only; nothing here updates or deletes rows.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository returns a LedgerRepository that uses the given pool.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Record appends one usage entry. An empty OrderID is stored as NULL; a
// non-empty one must satisfy the foreign key to orders, and violations are
// returned to the caller.
func (r *LedgerRepository) Record(ctx context.Context, u *ledger.Usage) error {
	return insertUsage(ctx, r.pool, u)
}

// execer is the subset of pgx shared by pgxpool.Pool and pgx.Tx, letting the
// usage insert run standalone or inside the commit transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertUsage(ctx context.Context, db execer, u *ledger.Usage) error {
	_, err := db.Exec(ctx, recordUsageSQL,
		u.ID.String(), u.CouponID.String(), u.UserID, nullableID(u.OrderID),
		u.DiscountAmount, u.OrderTotal, u.UsedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "recording usage of coupon %s", u.CouponID)
	}
	return nil
}

// CountForCoupon returns the total number of ledger entries for a coupon.
func (r *LedgerRepository) CountForCoupon(ctx context.Context, couponID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, countForCouponSQL, couponID.String()).Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(err, "counting usage of coupon %s", couponID)
	}
	return count, nil
}

// CountForUser returns the number of ledger entries for one coupon and user.
func (r *LedgerRepository) CountForUser(ctx context.Context, couponID uuid.UUID, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, countForUserSQL, couponID.String(), userID).Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(err, "counting usage of coupon %s by user %s", couponID, userID)
	}
	return count, nil
}

// nullableID maps an empty string to SQL NULL.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
