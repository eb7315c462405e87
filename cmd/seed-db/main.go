// Command seed-db loads the product catalog, a set of demo coupons, and a
// default API key into the database. Re-running it is safe: everything is
// upserted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shopverse/checkout/internal/api"
	"github.com/shopverse/checkout/internal/repository"
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

type couponSeed struct {
	code            string
	discountType    string
	value           decimal.Decimal
	minimumPurchase decimal.Decimal
	maximumDiscount *decimal.Decimal
	usageLimit      *int32
	perUserLimit    *int32
	days            int
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or CHECKOUT_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or CHECKOUT_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("CHECKOUT_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or CHECKOUT_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("CHECKOUT_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	return nil
}

const upsertProductSQL = `INSERT INTO products (id, name, price, category)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, price = EXCLUDED.price, category = EXCLUDED.category`

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if _, err := pool.Exec(ctx, upsertProductSQL, p.ID, p.Name, p.Price, p.Category); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}
	return nil
}

const upsertCouponSQL = `INSERT INTO coupons
	(id, code, discount_type, value, minimum_purchase, maximum_discount,
	 usage_limit, usage_limit_per_user, start_date, end_date, active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
	ON CONFLICT (code) DO UPDATE SET
		discount_type = EXCLUDED.discount_type,
		value = EXCLUDED.value,
		minimum_purchase = EXCLUDED.minimum_purchase,
		maximum_discount = EXCLUDED.maximum_discount,
		usage_limit = EXCLUDED.usage_limit,
		usage_limit_per_user = EXCLUDED.usage_limit_per_user,
		start_date = EXCLUDED.start_date,
		end_date = EXCLUDED.end_date,
		active = TRUE`

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo coupons")

	cap50 := decimal.NewFromInt(50)
	one := int32(1)
	hundred := int32(100)

	coupons := []couponSeed{
		{
			code:            "WELCOME10",
			discountType:    "percentage",
			value:           decimal.NewFromInt(10),
			maximumDiscount: &cap50,
			perUserLimit:    &one,
			days:            365,
		},
		{
			code:            "SAVE5",
			discountType:    "fixed",
			value:           decimal.NewFromInt(5),
			minimumPurchase: decimal.NewFromInt(20),
			days:            90,
		},
		{
			code:         "FLASH25",
			discountType: "percentage",
			value:        decimal.NewFromInt(25),
			usageLimit:   &hundred,
			days:         7,
		},
	}

	now := time.Now()
	for _, c := range coupons {
		_, err := pool.Exec(ctx, upsertCouponSQL,
			uuid.New().String(), c.code, c.discountType, c.value,
			c.minimumPurchase, c.maximumDiscount, c.usageLimit, c.perUserLimit,
			now, now.AddDate(0, 0, c.days),
		)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}
		slog.Info("upserted coupon", slog.String("code", c.code))
	}
	return nil
}

const upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, scopes, active)
	VALUES ($1, $2, $3, $4, TRUE)
	ON CONFLICT (id) DO UPDATE SET
		key_hash = EXCLUDED.key_hash, name = EXCLUDED.name,
		scopes = EXCLUDED.scopes, active = TRUE`

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	keyHash := api.HashAPIKey(apiKey, pepper)
	_, err := pool.Exec(ctx, upsertAPIKeySQL,
		"default", keyHash, "Default test key", []string{"place_order"},
	)
	if err != nil {
		return errors.Wrap(err, "upsert default API key")
	}
	return nil
}
