package consumer

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/eshopgo/checkout-pipeline/internal/dispatch"
	"github.com/eshopgo/checkout-pipeline/internal/domain/order"
	"github.com/eshopgo/checkout-pipeline/internal/event"
)

// AnnounceFulfillment returns a domain event handler that publishes an
// order.created integration event for every newly created order, so a
// fulfillment service can pick it up. A publish failure aborts the save
// that raised the event.
func AnnounceFulfillment(bus event.Publisher) dispatch.HandlerFunc {
	return func(ctx context.Context, e dispatch.Event) error {
		created, ok := e.(order.Created)
		if !ok {
			return nil
		}
		o := created.Order

		evt := event.OrderCreated{
			Meta:       event.NewMeta(event.TypeOrderCreated),
			OrderID:    o.ID.Value(),
			CustomerID: o.CustomerID.Value(),
			OrderName:  o.Name.String(),
			TotalPrice: o.TotalPrice(),
		}
		if err := bus.Publish(ctx, event.TypeOrderCreated, evt); err != nil {
			return err
		}

		zctx.From(ctx).Info("Order fulfillment announced",
			zap.Stringer("order_id", o.ID),
			zap.String("order_name", o.Name.String()),
		)
		return nil
	}
}

// LogDomainEvent is a catch-all handler that records each dispatched
// domain event.
func LogDomainEvent(ctx context.Context, e dispatch.Event) error {
	zctx.From(ctx).Info("Domain event handled",
		zap.String("kind", e.Kind()),
	)
	return nil
}
