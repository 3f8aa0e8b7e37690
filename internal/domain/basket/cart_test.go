package basket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestShoppingCartTotalPrice(t *testing.T) {
	cart := &ShoppingCart{
		UserName: "swn",
		Items: []CartItem{
			{
				Quantity:    2,
				Color:       "Black",
				Price:       decimal.NewFromInt(500),
				ProductID:   uuid.New(),
				ProductName: "IPhone X",
			},
			{
				Quantity:    1,
				Color:       "White",
				Price:       decimal.NewFromInt(400),
				ProductID:   uuid.New(),
				ProductName: "Samsung 10",
			},
		},
	}

	assert.True(t, cart.TotalPrice().Equal(decimal.NewFromInt(1400)),
		"expected 1400, got %s", cart.TotalPrice())
}

func TestShoppingCartTotalPriceEmpty(t *testing.T) {
	cart := &ShoppingCart{UserName: "swn"}

	assert.True(t, cart.TotalPrice().IsZero())
}

func TestShoppingCartTotalPriceFractional(t *testing.T) {
	cart := &ShoppingCart{
		UserName: "swn",
		Items: []CartItem{
			{Quantity: 3, Price: decimal.RequireFromString("19.99"), ProductName: "Case"},
		},
	}

	assert.True(t, cart.TotalPrice().Equal(decimal.RequireFromString("59.97")))
}
