package consumer

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshopgo/checkout-pipeline/internal/domain/order"
	"github.com/eshopgo/checkout-pipeline/internal/event"
)

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

func testOrder(t *testing.T) *order.Order {
	t.Helper()

	id, err := order.NewOrderID(uuid.New())
	require.NoError(t, err)
	customerID, err := order.NewCustomerID(uuid.New())
	require.NoError(t, err)
	name, err := order.NewOrderName("swn")
	require.NoError(t, err)
	addr, err := order.NewAddress("Mehmet", "Ozkaya", "mehmet@example.com", "Bahcelievler No:4", "Turkey", "Istanbul", "38050")
	require.NoError(t, err)
	payment, err := order.NewPayment("Mehmet Ozkaya", "5555555555554444", "12/28", "355", 1)
	require.NoError(t, err)

	o := order.Create(order.CreateParams{
		ID:              id,
		CustomerID:      customerID,
		Name:            name,
		ShippingAddress: addr,
		BillingAddress:  addr,
		Payment:         payment,
		Status:          order.StatusPending,
	})
	productID, err := order.NewProductID(uuid.New())
	require.NoError(t, err)
	require.NoError(t, o.AddItem(productID, 2, decimal.NewFromInt(500)))
	return o
}

func TestAnnounceFulfillmentPublishesOrderCreated(t *testing.T) {
	bus := &mockPublisher{}
	handler := AnnounceFulfillment(bus)

	o := testOrder(t)
	events := o.DrainEvents()
	require.Len(t, events, 1)

	require.NoError(t, handler(context.Background(), events[0].(order.Created)))

	require.Len(t, bus.published, 1)
	assert.Equal(t, []string{event.TypeOrderCreated}, bus.keys)

	evt, ok := bus.published[0].(event.OrderCreated)
	require.True(t, ok)
	assert.Equal(t, o.ID.Value(), evt.OrderID)
	assert.Equal(t, o.CustomerID.Value(), evt.CustomerID)
	assert.Equal(t, "swn", evt.OrderName)
	assert.True(t, evt.TotalPrice.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, event.TypeOrderCreated, evt.EventType)
}

func TestAnnounceFulfillmentIgnoresOtherEvents(t *testing.T) {
	bus := &mockPublisher{}
	handler := AnnounceFulfillment(bus)

	o := testOrder(t)
	o.DrainEvents()
	o.Update(o.Name, o.ShippingAddress, o.BillingAddress, o.Payment, order.StatusCompleted)
	events := o.DrainEvents()
	require.Len(t, events, 1)

	require.NoError(t, handler(context.Background(), events[0].(order.Updated)))
	assert.Empty(t, bus.published)
}

func TestAnnounceFulfillmentPublishFailure(t *testing.T) {
	boom := errors.New("broker unavailable")
	handler := AnnounceFulfillment(&mockPublisher{err: boom})

	o := testOrder(t)
	events := o.DrainEvents()

	assert.ErrorIs(t, handler(context.Background(), events[0].(order.Created)), boom)
}
