// Package discount applies per-product price deductions to cart items
// before the cart is stored. Rules are keyed by product name and deduct a
// fixed amount from the unit price.
package discount

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNoDiscount is returned by Repository.FindByProduct when no rule exists
// for the product. Absence of a rule is not an error for callers of Applier.
var ErrNoDiscount = errors.New("no discount for product")

// Rule is a fixed deduction applied to the unit price of a named product.
type Rule struct {
	ProductName string
	Amount      decimal.Decimal
	Description string
}

// Repository provides lookup of discount rules.
type Repository interface {
	FindByProduct(ctx context.Context, productName string) (*Rule, error)
}

// Item is a priced line for discount calculation. Price is the unit price.
type Item struct {
	ProductName string
	Price       decimal.Decimal
}

// Applier computes discounted unit prices for a set of items.
type Applier interface {
	Apply(ctx context.Context, items []Item) ([]decimal.Decimal, error)
}

// RepoApplier implements Applier by looking up each item's rule in a
// Repository.
type RepoApplier struct {
	repo Repository
}

// NewRepoApplier creates a RepoApplier backed by the given Repository.
func NewRepoApplier(repo Repository) *RepoApplier {
	return &RepoApplier{repo: repo}
}

// Apply returns the discounted unit price for each item, in input order.
// Items without a rule keep their original price. A discount never drives a
// price below zero.
func (a *RepoApplier) Apply(ctx context.Context, items []Item) ([]decimal.Decimal, error) {
	prices := make([]decimal.Decimal, len(items))
	for i, item := range items {
		prices[i] = item.Price

		rule, err := a.repo.FindByProduct(ctx, item.ProductName)
		if err != nil {
			if errors.Is(err, ErrNoDiscount) {
				continue
			}
			return nil, errors.Wrap(err, "lookup discount")
		}

		discounted := item.Price.Sub(rule.Amount)
		if discounted.IsNegative() {
			discounted = decimal.Zero
		}
		prices[i] = discounted
	}
	return prices, nil
}
