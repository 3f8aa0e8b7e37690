package basket

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshopgo/checkout-pipeline/internal/domain/discount"
	"github.com/eshopgo/checkout-pipeline/internal/event"
)

// --- Mock implementations ---

type mockCartRepo struct {
	carts     map[string]*ShoppingCart
	deleteErr error
}

func newCartRepo(carts ...*ShoppingCart) *mockCartRepo {
	m := &mockCartRepo{carts: make(map[string]*ShoppingCart)}
	for _, c := range carts {
		m.carts[c.UserName] = c
	}
	return m
}

func (m *mockCartRepo) Get(_ context.Context, userName string) (*ShoppingCart, error) {
	c, ok := m.carts[userName]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockCartRepo) Store(_ context.Context, cart *ShoppingCart) (*ShoppingCart, error) {
	m.carts[cart.UserName] = cart
	return cart, nil
}

func (m *mockCartRepo) Delete(_ context.Context, userName string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.carts, userName)
	return nil
}

type passthroughApplier struct{}

func (passthroughApplier) Apply(_ context.Context, items []discount.Item) ([]decimal.Decimal, error) {
	prices := make([]decimal.Decimal, len(items))
	for i, item := range items {
		prices[i] = item.Price
	}
	return prices, nil
}

type fixedApplier struct {
	amount decimal.Decimal
}

func (a fixedApplier) Apply(_ context.Context, items []discount.Item) ([]decimal.Decimal, error) {
	prices := make([]decimal.Decimal, len(items))
	for i, item := range items {
		prices[i] = item.Price.Sub(a.amount)
	}
	return prices, nil
}

type mockPublisher struct {
	published []any
	keys      []string
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, routingKey string, evt any) error {
	if m.err != nil {
		return m.err
	}
	m.keys = append(m.keys, routingKey)
	m.published = append(m.published, evt)
	return nil
}

// --- Helpers ---

func testCart(userName string) *ShoppingCart {
	return &ShoppingCart{
		UserName: userName,
		Items: []CartItem{
			{Quantity: 2, Color: "Black", Price: decimal.NewFromInt(500), ProductID: uuid.New(), ProductName: "IPhone X"},
			{Quantity: 1, Color: "White", Price: decimal.NewFromInt(400), ProductID: uuid.New(), ProductName: "Samsung 10"},
		},
	}
}

func testCheckoutRequest(userName string) CheckoutRequest {
	return CheckoutRequest{
		UserName:      userName,
		CustomerID:    uuid.New(),
		FirstName:     "Mehmet",
		LastName:      "Ozkaya",
		EmailAddress:  "mehmet@example.com",
		AddressLine:   "Bahcelievler No:4",
		Country:       "Turkey",
		State:         "Istanbul",
		ZipCode:       "38050",
		CardName:      "Mehmet Ozkaya",
		CardNumber:    "5555555555554444",
		Expiration:    "12/28",
		CVV:           "355",
		PaymentMethod: 1,
	}
}

// --- Tests ---

func TestServiceGet(t *testing.T) {
	repo := newCartRepo(testCart("swn"))
	svc := NewService(repo, passthroughApplier{}, &mockPublisher{})

	cart, err := svc.Get(context.Background(), "swn")
	require.NoError(t, err)
	assert.Equal(t, "swn", cart.UserName)
	assert.Len(t, cart.Items, 2)
}

func TestServiceGetEmptyUserName(t *testing.T) {
	svc := NewService(newCartRepo(), passthroughApplier{}, &mockPublisher{})

	_, err := svc.Get(context.Background(), "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "user_name", verr.Field)
}

func TestServiceGetNotFound(t *testing.T) {
	svc := NewService(newCartRepo(), passthroughApplier{}, &mockPublisher{})

	_, err := svc.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceStoreValidation(t *testing.T) {
	svc := NewService(newCartRepo(), passthroughApplier{}, &mockPublisher{})

	tests := []struct {
		name  string
		cart  *ShoppingCart
		field string
	}{
		{
			name:  "nil cart",
			cart:  nil,
			field: "user_name",
		},
		{
			name:  "empty user name",
			cart:  &ShoppingCart{},
			field: "user_name",
		},
		{
			name: "zero quantity",
			cart: &ShoppingCart{
				UserName: "swn",
				Items:    []CartItem{{Quantity: 0, Price: decimal.NewFromInt(10), ProductName: "IPhone X"}},
			},
			field: "quantity",
		},
		{
			name: "negative price",
			cart: &ShoppingCart{
				UserName: "swn",
				Items:    []CartItem{{Quantity: 1, Price: decimal.NewFromInt(-1), ProductName: "IPhone X"}},
			},
			field: "price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Store(context.Background(), tt.cart)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestServiceStoreAppliesDiscounts(t *testing.T) {
	repo := newCartRepo()
	svc := NewService(repo, fixedApplier{amount: decimal.NewFromInt(150)}, &mockPublisher{})

	stored, err := svc.Store(context.Background(), testCart("swn"))
	require.NoError(t, err)

	assert.True(t, stored.Items[0].Price.Equal(decimal.NewFromInt(350)),
		"expected 350, got %s", stored.Items[0].Price)
	assert.True(t, stored.Items[1].Price.Equal(decimal.NewFromInt(250)))

	persisted, err := repo.Get(context.Background(), "swn")
	require.NoError(t, err)
	assert.True(t, persisted.Items[0].Price.Equal(decimal.NewFromInt(350)))
}

func TestServiceCheckout(t *testing.T) {
	repo := newCartRepo(testCart("swn"))
	bus := &mockPublisher{}
	svc := NewService(repo, passthroughApplier{}, bus)

	req := testCheckoutRequest("swn")
	require.NoError(t, svc.Checkout(context.Background(), req))

	// Event carries a frozen snapshot of the cart.
	require.Len(t, bus.published, 1)
	assert.Equal(t, []string{event.TypeBasketCheckout}, bus.keys)

	evt, ok := bus.published[0].(*event.BasketCheckout)
	require.True(t, ok)
	assert.Equal(t, "swn", evt.UserName)
	assert.Equal(t, req.CustomerID, evt.CustomerID)
	assert.True(t, evt.TotalPrice.Equal(decimal.NewFromInt(1400)),
		"expected 1400, got %s", evt.TotalPrice)
	assert.Len(t, evt.Items, 2)
	assert.Equal(t, "IPhone X", evt.Items[0].ProductName)
	assert.Equal(t, 2, evt.Items[0].Quantity)
	assert.NotEqual(t, uuid.Nil, evt.ID)
	assert.Equal(t, event.TypeBasketCheckout, evt.EventType)

	// Cart is gone after a successful checkout.
	_, err := repo.Get(context.Background(), "swn")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceCheckoutPublishFailureKeepsCart(t *testing.T) {
	repo := newCartRepo(testCart("swn"))
	bus := &mockPublisher{err: errors.New("broker unavailable")}
	svc := NewService(repo, passthroughApplier{}, bus)

	err := svc.Checkout(context.Background(), testCheckoutRequest("swn"))
	require.Error(t, err)

	// Publish failed, so the cart must survive for a retry.
	cart, getErr := repo.Get(context.Background(), "swn")
	require.NoError(t, getErr)
	assert.Len(t, cart.Items, 2)
}

func TestServiceCheckoutMissingCart(t *testing.T) {
	bus := &mockPublisher{}
	svc := NewService(newCartRepo(), passthroughApplier{}, bus)

	err := svc.Checkout(context.Background(), testCheckoutRequest("nobody"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, bus.published)
}

func TestServiceCheckoutEmptyUserName(t *testing.T) {
	svc := NewService(newCartRepo(), passthroughApplier{}, &mockPublisher{})

	err := svc.Checkout(context.Background(), CheckoutRequest{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "user_name", verr.Field)
}

func TestServiceDeleteFailureSurfaces(t *testing.T) {
	repo := newCartRepo(testCart("swn"))
	repo.deleteErr = errors.New("connection reset")
	bus := &mockPublisher{}
	svc := NewService(repo, passthroughApplier{}, bus)

	err := svc.Checkout(context.Background(), testCheckoutRequest("swn"))
	require.Error(t, err)

	// The event was already published; the caller sees the delete failure.
	assert.Len(t, bus.published, 1)
}
