package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eshopgo/checkout-pipeline/internal/domain/discount"
)

const getDiscountSQL = `SELECT product_name, amount, description
	FROM discounts WHERE product_name = $1`

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// FindByProduct looks up the discount rule for a product name. Returns
// discount.ErrNoDiscount when no rule exists.
func (r *DiscountRepository) FindByProduct(ctx context.Context, productName string) (*discount.Rule, error) {
	var rule discount.Rule
	err := r.pool.QueryRow(ctx, getDiscountSQL, productName).
		Scan(&rule.ProductName, &rule.Amount, &rule.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNoDiscount
		}
		return nil, errors.Wrapf(err, "find discount for %q", productName)
	}
	return &rule, nil
}
