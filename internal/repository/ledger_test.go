//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shopverse/checkout/internal/domain/ledger"
	"github.com/shopverse/checkout/internal/domain/order"
)

// startPostgres brings up a throwaway postgres container, applies the
// migrations, and returns a ready pool.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "checkout",
				"POSTGRES_PASSWORD": "checkout",
				"POSTGRES_DB":       "checkout",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://checkout:checkout@%s:%s/checkout?sslmode=disable", host, port.Port())
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	return pool
}

const insertTestCouponSQL = `INSERT INTO coupons
	(id, code, discount_type, value, start_date, end_date)
	VALUES ($1, $2, 'percentage', 10, NOW() - INTERVAL '1 day', NOW() + INTERVAL '1 day')`

func testUsage(couponID uuid.UUID, userID, orderID string) *ledger.Usage {
	return &ledger.Usage{
		ID:             uuid.New(),
		CouponID:       couponID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: decimal.NewFromInt(2),
		OrderTotal:     decimal.NewFromInt(20),
		UsedAt:         time.Now(),
	}
}

func TestLedgerRepository_Record(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t)

	couponID := uuid.New()
	_, err := pool.Exec(ctx, insertTestCouponSQL, couponID.String(), "LEDGER10")
	require.NoError(t, err)

	entries := NewLedgerRepository(pool)
	checkouts := NewCheckoutRepository(pool)

	t.Run("empty order id stored as NULL", func(t *testing.T) {
		require.NoError(t, entries.Record(ctx, testUsage(couponID, "u1", "")))

		var orderID *string
		err := pool.QueryRow(ctx,
			`SELECT order_id FROM coupon_usages WHERE coupon_id = $1 AND user_id = 'u1'`,
			couponID.String(),
		).Scan(&orderID)
		require.NoError(t, err)
		assert.Nil(t, orderID)
	})

	t.Run("order id resolves the foreign key", func(t *testing.T) {
		o := &order.Order{
			ID:         uuid.New().String(),
			UserID:     "u2",
			Items:      []order.Item{{ProductID: "p1", Quantity: 1}},
			Subtotal:   decimal.NewFromInt(20),
			Discount:   decimal.NewFromInt(2),
			Total:      decimal.NewFromInt(18),
			CouponCode: "LEDGER10",
			CreatedAt:  time.Now(),
		}
		require.NoError(t, checkouts.CreateOrder(ctx, o))
		require.NoError(t, entries.Record(ctx, testUsage(couponID, "u2", o.ID)))
	})

	t.Run("unknown order id is rejected", func(t *testing.T) {
		err := entries.Record(ctx, testUsage(couponID, "u3", "no-such-order"))

		var pgErr *pgconn.PgError
		require.ErrorAs(t, err, &pgErr)
		assert.Equal(t, "23503", pgErr.Code) // foreign_key_violation
	})

	t.Run("counts derive from recorded rows", func(t *testing.T) {
		total, err := entries.CountForCoupon(ctx, couponID)
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		byUser, err := entries.CountForUser(ctx, couponID, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, byUser)
	})
}
