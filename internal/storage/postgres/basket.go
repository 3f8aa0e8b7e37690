package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eshopgo/checkout-pipeline/internal/domain/basket"
)

const (
	getBasketSQL = `SELECT items FROM baskets WHERE user_name = $1`

	storeBasketSQL = `INSERT INTO baskets (user_name, items, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_name) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`

	deleteBasketSQL = `DELETE FROM baskets WHERE user_name = $1`
)

var _ basket.Repository = (*BasketRepository)(nil)

// BasketRepository implements basket.Repository with carts stored as JSONB
// documents keyed by username.
type BasketRepository struct {
	pool *pgxpool.Pool
}

// NewBasketRepository returns a BasketRepository that uses the given pool.
func NewBasketRepository(pool *pgxpool.Pool) *BasketRepository {
	return &BasketRepository{pool: pool}
}

// Get loads the user's cart, returning basket.ErrNotFound when absent.
func (r *BasketRepository) Get(ctx context.Context, userName string) (*basket.ShoppingCart, error) {
	var itemsJSON []byte
	err := r.pool.QueryRow(ctx, getBasketSQL, userName).Scan(&itemsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, basket.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get basket for %q", userName)
	}

	cart := &basket.ShoppingCart{UserName: userName}
	if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
		return nil, errors.Wrapf(err, "unmarshal basket items for %q", userName)
	}
	return cart, nil
}

// Store upserts the cart document.
func (r *BasketRepository) Store(ctx context.Context, cart *basket.ShoppingCart) (*basket.ShoppingCart, error) {
	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return nil, errors.Wrap(err, "marshal basket items")
	}

	if _, err := r.pool.Exec(ctx, storeBasketSQL, cart.UserName, itemsJSON); err != nil {
		return nil, errors.Wrapf(err, "store basket for %q", cart.UserName)
	}
	return cart, nil
}

// Delete removes the cart document. Deleting an absent cart is not an error.
func (r *BasketRepository) Delete(ctx context.Context, userName string) error {
	if _, err := r.pool.Exec(ctx, deleteBasketSQL, userName); err != nil {
		return errors.Wrapf(err, "delete basket for %q", userName)
	}
	return nil
}
