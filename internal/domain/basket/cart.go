package basket

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no cart exists for the requested user.
var ErrNotFound = errors.New("basket not found")

// ShoppingCart is a user's cart. Carts are keyed by username: one cart per
// user, created on first store and destroyed at successful checkout.
type ShoppingCart struct {
	UserName string     `json:"user_name"`
	Items    []CartItem `json:"items"`
}

// CartItem is a single line in a cart. ProductName and Price are snapshots
// taken when the item was added; they do not track later catalog changes.
type CartItem struct {
	Quantity    int             `json:"quantity"`
	Color       string          `json:"color"`
	Price       decimal.Decimal `json:"price"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
}

// TotalPrice returns the sum of price*quantity over all items. The total is
// always recomputed from the line items and never persisted.
func (c *ShoppingCart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Repository defines persistence operations for shopping carts.
// Get returns ErrNotFound when the user has no cart; callers decide whether
// an absent cart is an error or an empty default.
type Repository interface {
	Get(ctx context.Context, userName string) (*ShoppingCart, error)
	Store(ctx context.Context, cart *ShoppingCart) (*ShoppingCart, error)
	Delete(ctx context.Context, userName string) error
}
