// Package event defines the integration events that cross service
// boundaries and the bus contracts used to move them. Integration events are
// immutable snapshots: once published they are never mutated, and consumers
// must tolerate at-least-once delivery.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Routing keys identify event types on the wire. Consumers bind queues by
// key; the version suffix allows incompatible payload changes later.
const (
	TypeBasketCheckout = "basket.checkout.v1"
	TypeOrderCreated   = "order.created.v1"
)

// Meta carries the fields common to every integration event: a unique event
// id, the UTC time the event occurred, and the routing key of the payload.
type Meta struct {
	ID         uuid.UUID `json:"id"`
	OccurredOn time.Time `json:"occurred_on"`
	EventType  string    `json:"event_type"`
}

// NewMeta stamps fresh metadata for an event of the given type.
func NewMeta(eventType string) Meta {
	return Meta{
		ID:         uuid.New(),
		OccurredOn: time.Now().UTC(),
		EventType:  eventType,
	}
}

// CheckoutItem is a frozen copy of a cart line carried in the checkout
// event payload so the consumer can materialize the real order items.
type CheckoutItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Color       string          `json:"color"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// BasketCheckout announces that a user's basket was checked out. TotalPrice
// is computed from the cart at publish time, not by the consumer.
type BasketCheckout struct {
	Meta

	UserName   string          `json:"user_name"`
	CustomerID uuid.UUID       `json:"customer_id"`
	TotalPrice decimal.Decimal `json:"total_price"`

	// Shipping / billing address.
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmailAddress string `json:"email_address"`
	AddressLine  string `json:"address_line"`
	Country      string `json:"country"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`

	// Payment.
	CardName      string `json:"card_name"`
	CardNumber    string `json:"card_number"`
	Expiration    string `json:"expiration"`
	CVV           string `json:"cvv"`
	PaymentMethod int    `json:"payment_method"`

	Items []CheckoutItem `json:"items"`
}

// OrderCreated announces that an order was materialized, published only when
// the fulfillment toggle is on.
type OrderCreated struct {
	Meta

	OrderID    uuid.UUID       `json:"order_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	OrderName  string          `json:"order_name"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Publisher sends an integration event to the bus. Publish returns once the
// broker has durably accepted the message, not once any consumer has
// processed it. Delivery downstream is at-least-once.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}
