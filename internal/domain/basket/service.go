package basket

import (
	"context"
	"fmt"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eshopgo/checkout-pipeline/internal/domain/discount"
	"github.com/eshopgo/checkout-pipeline/internal/event"
)

// ValidationError indicates malformed input to a basket operation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CheckoutRequest holds the caller-supplied identity, address, and payment
// data for a checkout. The username is always explicit; the service never
// assumes a default user.
type CheckoutRequest struct {
	UserName   string
	CustomerID uuid.UUID

	FirstName    string
	LastName     string
	EmailAddress string
	AddressLine  string
	Country      string
	State        string
	ZipCode      string

	CardName      string
	CardNumber    string
	Expiration    string
	CVV           string
	PaymentMethod int
}

// Service implements the basket operations: cart access through the
// repository tier and the checkout publish-then-delete sequence.
type Service struct {
	carts     Repository
	discounts discount.Applier
	bus       event.Publisher
}

// NewService creates a basket Service with the required dependencies.
func NewService(carts Repository, discounts discount.Applier, bus event.Publisher) *Service {
	return &Service{
		carts:     carts,
		discounts: discounts,
		bus:       bus,
	}
}

// Get returns the user's cart or ErrNotFound. Materializing a default empty
// cart for a known user is the caller's decision, not this service's.
func (s *Service) Get(ctx context.Context, userName string) (*ShoppingCart, error) {
	if userName == "" {
		return nil, &ValidationError{Field: "user_name", Reason: "must not be empty"}
	}
	return s.carts.Get(ctx, userName)
}

// Store validates the cart, applies per-product discounts to the item
// prices, and persists it through the repository tier.
func (s *Service) Store(ctx context.Context, cart *ShoppingCart) (*ShoppingCart, error) {
	if cart == nil || cart.UserName == "" {
		return nil, &ValidationError{Field: "user_name", Reason: "must not be empty"}
	}
	for _, item := range cart.Items {
		if item.Quantity <= 0 {
			return nil, &ValidationError{Field: "quantity", Reason: "must be greater than 0"}
		}
		if item.Price.IsNegative() {
			return nil, &ValidationError{Field: "price", Reason: "must not be negative"}
		}
	}

	items := make([]discount.Item, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = discount.Item{ProductName: item.ProductName, Price: item.Price}
	}
	prices, err := s.discounts.Apply(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("apply discounts: %w", err)
	}
	for i := range cart.Items {
		cart.Items[i].Price = prices[i]
	}

	return s.carts.Store(ctx, cart)
}

// Delete removes the user's cart.
func (s *Service) Delete(ctx context.Context, userName string) error {
	if userName == "" {
		return &ValidationError{Field: "user_name", Reason: "must not be empty"}
	}
	return s.carts.Delete(ctx, userName)
}

// Checkout loads the cart, publishes a BasketCheckout snapshot, then deletes
// the cart. The order is deliberate: if publish fails the cart stays intact
// and the whole operation can be retried; if delete fails after a successful
// publish the event is already durably queued, and a retried checkout may
// produce a duplicate event (at-least-once; the consumer deduplicates).
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) error {
	if req.UserName == "" {
		return &ValidationError{Field: "user_name", Reason: "must not be empty"}
	}

	cart, err := s.carts.Get(ctx, req.UserName)
	if err != nil {
		return err
	}

	evt := newCheckoutEvent(req, cart)
	if err := s.bus.Publish(ctx, event.TypeBasketCheckout, evt); err != nil {
		return fmt.Errorf("publish checkout event: %w", err)
	}

	zctx.From(ctx).Info("Checkout event published",
		zap.Stringer("event_id", evt.ID),
		zap.String("user_name", req.UserName),
		zap.String("total_price", evt.TotalPrice.String()),
	)

	if err := s.carts.Delete(ctx, req.UserName); err != nil {
		return fmt.Errorf("delete basket after checkout: %w", err)
	}
	return nil
}

// newCheckoutEvent freezes the cart contents and totals into an immutable
// event snapshot. The total is computed here, at publish time.
func newCheckoutEvent(req CheckoutRequest, cart *ShoppingCart) *event.BasketCheckout {
	items := make([]event.CheckoutItem, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = event.CheckoutItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Color:       item.Color,
			Quantity:    item.Quantity,
			Price:       item.Price,
		}
	}

	return &event.BasketCheckout{
		Meta:          event.NewMeta(event.TypeBasketCheckout),
		UserName:      cart.UserName,
		CustomerID:    req.CustomerID,
		TotalPrice:    cart.TotalPrice(),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		EmailAddress:  req.EmailAddress,
		AddressLine:   req.AddressLine,
		Country:       req.Country,
		State:         req.State,
		ZipCode:       req.ZipCode,
		CardName:      req.CardName,
		CardNumber:    req.CardNumber,
		Expiration:    req.Expiration,
		CVV:           req.CVV,
		PaymentMethod: req.PaymentMethod,
		Items:         items,
	}
}
