// Package order holds the order aggregate, its value objects, and the
// domain events it records. The aggregate is the consistency boundary:
// items cannot exist outside an order, and all mutation goes through
// methods that enforce the invariants.
package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no order exists for the requested id.
var ErrNotFound = errors.New("order not found")

// ErrDuplicateEvent is returned by Repository.Create when an order for the
// same source event id already exists. Redelivered checkout events hit this
// instead of creating a second order.
var ErrDuplicateEvent = errors.New("order for source event already exists")

// InvalidQuantityError indicates an item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID ProductID
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InvalidPriceError indicates an item with a non-positive price.
type InvalidPriceError struct {
	ProductID ProductID
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("price must be greater than 0 for product %s", e.ProductID)
}

// Status is the lifecycle state of an order, persisted by its string name.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// ParseStatus converts a stored status name back to a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusPending, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", domainErrorf("unknown order status %q", s)
}

// Item is a line item owned by exactly one order. Items are created only
// through Order.AddItem, which enforces the quantity and price invariants.
type Item struct {
	ID        OrderItemID
	OrderID   OrderID
	ProductID ProductID
	Quantity  int
	Price     decimal.Decimal
}

// Order is the aggregate root. The events buffer is owned by the aggregate
// and exposed only through recordEvent and DrainEvents.
type Order struct {
	ID              OrderID
	CustomerID      CustomerID
	Name            OrderName
	ShippingAddress Address
	BillingAddress  Address
	Payment         Payment
	Status          Status
	Items           []Item

	// SourceEventID is the id of the integration event this order was
	// materialized from, when there is one. It deduplicates redelivered
	// checkout events.
	SourceEventID uuid.UUID

	events []DomainEvent
}

// CreateParams holds the validated value objects needed to construct an
// order. Status may be left zero, in which case the order starts as Draft.
type CreateParams struct {
	ID              OrderID
	CustomerID      CustomerID
	Name            OrderName
	ShippingAddress Address
	BillingAddress  Address
	Payment         Payment
	Status          Status
	SourceEventID   uuid.UUID
}

// Create constructs a new order and records exactly one Created event.
func Create(p CreateParams) *Order {
	status := p.Status
	if status == "" {
		status = StatusDraft
	}

	o := &Order{
		ID:              p.ID,
		CustomerID:      p.CustomerID,
		Name:            p.Name,
		ShippingAddress: p.ShippingAddress,
		BillingAddress:  p.BillingAddress,
		Payment:         p.Payment,
		Status:          status,
		SourceEventID:   p.SourceEventID,
	}
	o.recordEvent(Created{eventMeta: newEventMeta(), Order: o})
	return o
}

// Rehydrate rebuilds an order from persisted state without recording any
// events.
func Rehydrate(p CreateParams, items []Item) *Order {
	return &Order{
		ID:              p.ID,
		CustomerID:      p.CustomerID,
		Name:            p.Name,
		ShippingAddress: p.ShippingAddress,
		BillingAddress:  p.BillingAddress,
		Payment:         p.Payment,
		Status:          p.Status,
		SourceEventID:   p.SourceEventID,
		Items:           items,
	}
}

// Update replaces the order's header fields and records exactly one Updated
// event.
func (o *Order) Update(name OrderName, shipping, billing Address, payment Payment, status Status) {
	o.Name = name
	o.ShippingAddress = shipping
	o.BillingAddress = billing
	o.Payment = payment
	o.Status = status
	o.recordEvent(Updated{eventMeta: newEventMeta(), Order: o})
}

// AddItem appends a line item after validating quantity and price. The item
// id is generated here; items never exist outside the aggregate.
func (o *Order) AddItem(productID ProductID, quantity int, price decimal.Decimal) error {
	if quantity <= 0 {
		return &InvalidQuantityError{ProductID: productID}
	}
	if !price.IsPositive() {
		return &InvalidPriceError{ProductID: productID}
	}

	itemID, err := NewOrderItemID(uuid.New())
	if err != nil {
		return err
	}
	o.Items = append(o.Items, Item{
		ID:        itemID,
		OrderID:   o.ID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
	})
	return nil
}

// RemoveItem drops the first item referencing the given product. Removing
// an absent product is a no-op.
func (o *Order) RemoveItem(productID ProductID) {
	for i, item := range o.Items {
		if item.ProductID == productID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			return
		}
	}
}

// TotalPrice is the sum of price*quantity over all items, recomputed on
// every call and never stored.
func (o *Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func (o *Order) recordEvent(e DomainEvent) {
	o.events = append(o.events, e)
}

// PendingEvents reports whether the aggregate has undrained events.
func (o *Order) PendingEvents() bool {
	return len(o.events) > 0
}

// DrainEvents clears the event buffer and returns the drained events in
// insertion order. A second drain within the same commit returns nil, so
// events are never dispatched twice.
func (o *Order) DrainEvents() []DomainEvent {
	drained := o.events
	o.events = nil
	return drained
}

// Repository defines persistence operations for orders. Create and Update
// are transactional: pending domain events are dispatched before the commit
// completes, and a handler failure aborts the save.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	Get(ctx context.Context, id OrderID) (*Order, error)
}
