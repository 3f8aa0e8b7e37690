// Command seed-db runs migrations and seeds the discount rules used by the
// basket server. Rules can be loaded from a JSON file; without one a small
// set of demo rules is seeded.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/eshopgo/checkout-pipeline/internal/storage/postgres"
)

type discountJSON struct {
	ProductName string          `json:"product_name"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func main() {
	var (
		databaseURL   string
		discountsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&discountsFile, "discounts-file", "", "path to discount rules JSON file (optional)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, discountsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, discountsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	rules, err := loadRules(discountsFile)
	if err != nil {
		return err
	}

	return seedDiscounts(ctx, pool, rules)
}

func loadRules(discountsFile string) ([]discountJSON, error) {
	if discountsFile == "" {
		return defaultRules(), nil
	}

	slog.Info("reading discounts file", slog.String("path", discountsFile))

	data, err := os.ReadFile(discountsFile)
	if err != nil {
		return nil, errors.Wrap(err, "read discounts file")
	}

	var rules []discountJSON
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, errors.Wrap(err, "parse discounts JSON")
	}
	return rules, nil
}

func defaultRules() []discountJSON {
	return []discountJSON{
		{
			ProductName: "IPhone X",
			Amount:      decimal.NewFromInt(150),
			Description: "IPhone discount",
		},
		{
			ProductName: "Samsung 10",
			Amount:      decimal.NewFromInt(100),
			Description: "Samsung discount",
		},
	}
}

const upsertDiscountSQL = `
INSERT INTO discounts (product_name, amount, description)
VALUES ($1, $2, $3)
ON CONFLICT (product_name) DO UPDATE
SET amount = EXCLUDED.amount, description = EXCLUDED.description`

func seedDiscounts(ctx context.Context, pool *pgxpool.Pool, rules []discountJSON) error {
	slog.Info("upserting discount rules", slog.Int("count", len(rules)))

	for _, r := range rules {
		if _, err := pool.Exec(ctx, upsertDiscountSQL, r.ProductName, r.Amount, r.Description); err != nil {
			return errors.Wrapf(err, "upsert discount %s", r.ProductName)
		}

		slog.Info("upserted discount",
			slog.String("product_name", r.ProductName),
			slog.String("amount", r.Amount.String()),
		)
	}

	return nil
}
