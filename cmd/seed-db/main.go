// Command seed-db populates a fresh database with catalog products, stock
// levels, service areas, promo codes, a demo wallet, and an API key. It is
// idempotent: every write is an upsert, so re-running it is safe.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/grocer/internal/repository"
)

type productJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Category   string `json:"category"`
	Stock      int64  `json:"stock"`
}

const (
	upsertProductSQL = `INSERT INTO products (id, name, price_cents, category, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price_cents = EXCLUDED.price_cents,
			category = EXCLUDED.category,
			active = TRUE`

	upsertStockSQL = `INSERT INTO inventory (product_id, stock_quantity)
		VALUES ($1, $2)
		ON CONFLICT (product_id) DO UPDATE SET
			stock_quantity = EXCLUDED.stock_quantity`

	upsertAreaSQL = `INSERT INTO service_areas (id, name, delivery_fee_cents, min_order_cents, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			delivery_fee_cents = EXCLUDED.delivery_fee_cents,
			min_order_cents = EXCLUDED.min_order_cents,
			active = TRUE`

	upsertPromoSQL = `INSERT INTO promo_codes
		(code, discount_type, discount_value, min_order_cents, max_usage_count, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			min_order_cents = EXCLUDED.min_order_cents,
			max_usage_count = EXCLUDED.max_usage_count,
			active = TRUE`

	upsertWalletSQL = `INSERT INTO wallets (account_id, balance_cents)
		VALUES ($1, $2)
		ON CONFLICT (account_id) DO NOTHING`

	insertSeedEntrySQL = `INSERT INTO wallet_ledger
		(id, account_id, type, amount_cents, balance_after_cents, description)
		SELECT $1, $2, 'top_up', $3, $3, 'Seed balance'
		WHERE NOT EXISTS (SELECT 1 FROM wallet_ledger WHERE account_id = $2)`

	upsertAPIKeySQL = `INSERT INTO api_keys (key_hash, label)
		VALUES ($1, $2)
		ON CONFLICT (key_hash) DO UPDATE SET label = EXCLUDED.label`
)

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or GROCER_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or GROCER_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("GROCER_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or GROCER_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("GROCER_API_KEY_PEPPER")
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

	if err := seedAreas(ctx, pool); err != nil {
		return errors.Wrap(err, "seed service areas")
	}

	if err := seedPromos(ctx, pool); err != nil {
		return errors.Wrap(err, "seed promo codes")
	}

	if err := seedDemoWallet(ctx, pool); err != nil {
		return errors.Wrap(err, "seed demo wallet")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

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
		if _, err := pool.Exec(ctx, upsertProductSQL, p.ID, p.Name, p.PriceCents, p.Category); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
		if _, err := pool.Exec(ctx, upsertStockSQL, p.ID, p.Stock); err != nil {
			return errors.Wrapf(err, "upsert stock for %s", p.ID)
		}

		slog.Info("upserted product",
			slog.String("id", p.ID),
			slog.String("name", p.Name),
			slog.Int64("stock", p.Stock),
		)
	}

	return nil
}

func seedAreas(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding service areas")

	areas := []struct {
		id       string
		name     string
		fee      int64
		minOrder int64
	}{
		{id: "downtown", name: "Downtown", fee: 299, minOrder: 1500},
		{id: "riverside", name: "Riverside", fee: 399, minOrder: 2000},
		{id: "hillcrest", name: "Hillcrest", fee: 499, minOrder: 2500},
	}

	for _, a := range areas {
		if _, err := pool.Exec(ctx, upsertAreaSQL, a.id, a.name, a.fee, a.minOrder); err != nil {
			return errors.Wrapf(err, "upsert area %s", a.id)
		}

		slog.Info("upserted service area", slog.String("id", a.id), slog.String("name", a.name))
	}

	return nil
}

func seedPromos(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding promo codes")

	promos := []struct {
		code         string
		discountType string
		value        decimal.Decimal
		minOrder     int64
		maxUsage     int
	}{
		{code: "FRESH10", discountType: "PERCENTAGE", value: decimal.NewFromInt(10), minOrder: 0, maxUsage: 0},
		{code: "SAVE5", discountType: "FIXED_AMOUNT", value: decimal.NewFromInt(500), minOrder: 2500, maxUsage: 0},
		{code: "WELCOME", discountType: "PERCENTAGE", value: decimal.NewFromInt(15), minOrder: 2000, maxUsage: 1000},
		{code: "ONETIME", discountType: "PERCENTAGE", value: decimal.NewFromInt(20), minOrder: 0, maxUsage: 1},
	}

	for _, p := range promos {
		if _, err := pool.Exec(ctx, upsertPromoSQL,
			p.code, p.discountType, p.value, p.minOrder, p.maxUsage,
		); err != nil {
			return errors.Wrapf(err, "upsert promo %s", p.code)
		}

		slog.Info("upserted promo code", slog.String("code", p.code))
	}

	return nil
}

func seedDemoWallet(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo wallet")

	const (
		accountID    = "demo-account"
		balanceCents = 10_000
	)

	if _, err := pool.Exec(ctx, upsertWalletSQL, accountID, balanceCents); err != nil {
		return errors.Wrap(err, "upsert demo wallet")
	}
	if _, err := pool.Exec(ctx, insertSeedEntrySQL, uuid.NewString(), accountID, balanceCents); err != nil {
		return errors.Wrap(err, "insert seed ledger entry")
	}

	slog.Info("upserted demo wallet", slog.String("account_id", accountID))

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL, keyHash, "default"); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("label", "default"))

	return nil
}
