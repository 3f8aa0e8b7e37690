// Package consumer materializes orders from basket checkout events.
package consumer

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eshopgo/checkout-pipeline/internal/domain/order"
	"github.com/eshopgo/checkout-pipeline/internal/event"
)

// Checkout maps BasketCheckout events into new order aggregates and
// persists them. Persistence runs the domain event dispatcher before
// commit, so a failing downstream handler aborts the order.
type Checkout struct {
	orders order.Repository
}

// NewCheckout creates a Checkout consumer writing through the given
// repository.
func NewCheckout(orders order.Repository) *Checkout {
	return &Checkout{orders: orders}
}

// HandleMessage decodes a raw bus message and delegates to OnBasketCheckout.
// It is the rabbit.HandlerFunc for the checkout queue. Duplicate deliveries
// are acknowledged as handled: the order already exists.
func (c *Checkout) HandleMessage(ctx context.Context, body []byte) error {
	var evt event.BasketCheckout
	if err := json.Unmarshal(body, &evt); err != nil {
		return errors.Wrap(err, "decode checkout event")
	}

	err := c.OnBasketCheckout(ctx, &evt)
	if errors.Is(err, order.ErrDuplicateEvent) {
		zctx.From(ctx).Info("Duplicate checkout event skipped",
			zap.Stringer("event_id", evt.ID),
		)
		return nil
	}
	return err
}

// OnBasketCheckout converts the event snapshot into an order aggregate with
// the event's real line items and persists it. The order id is freshly
// generated; the event id rides along for deduplication.
func (c *Checkout) OnBasketCheckout(ctx context.Context, evt *event.BasketCheckout) error {
	o, err := mapToOrder(evt)
	if err != nil {
		return errors.Wrap(err, "map checkout event")
	}

	if err := c.orders.Create(ctx, o); err != nil {
		if errors.Is(err, order.ErrDuplicateEvent) {
			return err
		}
		return errors.Wrap(err, "create order")
	}

	zctx.From(ctx).Info("Order materialized from checkout",
		zap.Stringer("order_id", o.ID),
		zap.String("order_name", o.Name.Value()),
		zap.String("total_price", o.TotalPrice().String()),
	)
	return nil
}

func mapToOrder(evt *event.BasketCheckout) (*order.Order, error) {
	id, err := order.NewOrderID(uuid.New())
	if err != nil {
		return nil, err
	}
	customerID, err := order.NewCustomerID(evt.CustomerID)
	if err != nil {
		return nil, err
	}
	name, err := order.NewOrderName(evt.UserName)
	if err != nil {
		return nil, err
	}

	// The checkout form collects a single address used for both shipping
	// and billing.
	addr, err := order.NewAddress(
		evt.FirstName,
		evt.LastName,
		evt.EmailAddress,
		evt.AddressLine,
		evt.Country,
		evt.State,
		evt.ZipCode,
	)
	if err != nil {
		return nil, err
	}

	payment, err := order.NewPayment(
		evt.CardName,
		evt.CardNumber,
		evt.Expiration,
		evt.CVV,
		evt.PaymentMethod,
	)
	if err != nil {
		return nil, err
	}

	o := order.Create(order.CreateParams{
		ID:              id,
		CustomerID:      customerID,
		Name:            name,
		ShippingAddress: addr,
		BillingAddress:  addr,
		Payment:         payment,
		Status:          order.StatusPending,
		SourceEventID:   evt.ID,
	})

	for _, item := range evt.Items {
		productID, err := order.NewProductID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if err := o.AddItem(productID, item.Quantity, item.Price); err != nil {
			return nil, err
		}
	}
	return o, nil
}
