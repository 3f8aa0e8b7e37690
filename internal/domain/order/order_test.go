package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func testCreateParams(t *testing.T) CreateParams {
	t.Helper()

	id, err := NewOrderID(uuid.New())
	require.NoError(t, err)
	customerID, err := NewCustomerID(uuid.New())
	require.NoError(t, err)
	name, err := NewOrderName("swn")
	require.NoError(t, err)
	addr, err := NewAddress("Mehmet", "Ozkaya", "mehmet@example.com", "Bahcelievler No:4", "Turkey", "Istanbul", "38050")
	require.NoError(t, err)
	payment, err := NewPayment("Mehmet Ozkaya", "5555555555554444", "12/28", "355", 1)
	require.NoError(t, err)

	return CreateParams{
		ID:              id,
		CustomerID:      customerID,
		Name:            name,
		ShippingAddress: addr,
		BillingAddress:  addr,
		Payment:         payment,
	}
}

func mustProductID(t *testing.T) ProductID {
	t.Helper()
	id, err := NewProductID(uuid.New())
	require.NoError(t, err)
	return id
}

// --- Tests ---

func TestCreateRecordsSingleCreatedEvent(t *testing.T) {
	o := Create(testCreateParams(t))

	require.True(t, o.PendingEvents())
	events := o.DrainEvents()
	require.Len(t, events, 1)

	created, ok := events[0].(Created)
	require.True(t, ok)
	assert.Equal(t, KindOrderCreated, created.Kind())
	assert.Same(t, o, created.Order)
	assert.NotEqual(t, uuid.Nil, created.EventID())
	assert.False(t, created.OccurredOn().IsZero())
}

func TestCreateDefaultsToDraft(t *testing.T) {
	o := Create(testCreateParams(t))
	assert.Equal(t, StatusDraft, o.Status)

	p := testCreateParams(t)
	p.Status = StatusPending
	assert.Equal(t, StatusPending, Create(p).Status)
}

func TestDrainEventsClearsBuffer(t *testing.T) {
	o := Create(testCreateParams(t))

	first := o.DrainEvents()
	require.Len(t, first, 1)

	// Second drain without new mutations yields nothing.
	assert.Nil(t, o.DrainEvents())
	assert.False(t, o.PendingEvents())
}

func TestUpdateRecordsSingleUpdatedEvent(t *testing.T) {
	o := Create(testCreateParams(t))
	o.DrainEvents()

	name, err := NewOrderName("swn-updated")
	require.NoError(t, err)
	o.Update(name, o.ShippingAddress, o.BillingAddress, o.Payment, StatusCompleted)

	events := o.DrainEvents()
	require.Len(t, events, 1)

	updated, ok := events[0].(Updated)
	require.True(t, ok)
	assert.Equal(t, KindOrderUpdated, updated.Kind())
	assert.Equal(t, StatusCompleted, o.Status)
	assert.Equal(t, "swn-updated", o.Name.Value())
}

func TestRehydrateRecordsNoEvents(t *testing.T) {
	o := Rehydrate(testCreateParams(t), nil)

	assert.False(t, o.PendingEvents())
	assert.Nil(t, o.DrainEvents())
}

func TestAddItem(t *testing.T) {
	o := Create(testCreateParams(t))
	productID := mustProductID(t)

	require.NoError(t, o.AddItem(productID, 2, decimal.NewFromInt(500)))

	require.Len(t, o.Items, 1)
	item := o.Items[0]
	assert.Equal(t, o.ID, item.OrderID)
	assert.Equal(t, productID, item.ProductID)
	assert.Equal(t, 2, item.Quantity)
	assert.NotEqual(t, uuid.Nil, item.ID.Value())
}

func TestAddItemRejectsInvalidInput(t *testing.T) {
	o := Create(testCreateParams(t))
	productID := mustProductID(t)

	var qerr *InvalidQuantityError
	require.ErrorAs(t, o.AddItem(productID, 0, decimal.NewFromInt(10)), &qerr)
	require.ErrorAs(t, o.AddItem(productID, -1, decimal.NewFromInt(10)), &qerr)

	var perr *InvalidPriceError
	require.ErrorAs(t, o.AddItem(productID, 1, decimal.Zero), &perr)
	require.ErrorAs(t, o.AddItem(productID, 1, decimal.NewFromInt(-5)), &perr)

	assert.Empty(t, o.Items)
}

func TestRemoveItem(t *testing.T) {
	o := Create(testCreateParams(t))
	first := mustProductID(t)
	second := mustProductID(t)

	require.NoError(t, o.AddItem(first, 1, decimal.NewFromInt(100)))
	require.NoError(t, o.AddItem(second, 1, decimal.NewFromInt(200)))

	o.RemoveItem(first)
	require.Len(t, o.Items, 1)
	assert.Equal(t, second, o.Items[0].ProductID)

	// Removing an absent product is a no-op.
	o.RemoveItem(first)
	assert.Len(t, o.Items, 1)
}

func TestTotalPriceRecomputed(t *testing.T) {
	o := Create(testCreateParams(t))
	assert.True(t, o.TotalPrice().IsZero())

	require.NoError(t, o.AddItem(mustProductID(t), 2, decimal.NewFromInt(500)))
	require.NoError(t, o.AddItem(mustProductID(t), 1, decimal.NewFromInt(400)))
	assert.True(t, o.TotalPrice().Equal(decimal.NewFromInt(1400)),
		"expected 1400, got %s", o.TotalPrice())

	removed := o.Items[1].ProductID
	o.RemoveItem(removed)
	assert.True(t, o.TotalPrice().Equal(decimal.NewFromInt(1000)))
}
