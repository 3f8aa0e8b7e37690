package rabbit

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eshopgo/checkout-pipeline/internal/event"
)

var _ event.Publisher = (*Publisher)(nil)

// Publisher implements event.Publisher over the topic exchange. Publisher
// confirms are enabled so Publish only returns after the broker has
// durably accepted the message.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher opens a dedicated channel in confirm mode and returns a
// Publisher bound to the event exchange.
func NewPublisher(c *Conn) (*Publisher, error) {
	ch, err := c.channel()
	if err != nil {
		return nil, errors.Wrap(err, "open publisher channel")
	}
	if err := ch.Confirm(false); err != nil {
		return nil, errors.Wrap(err, "enable publisher confirms")
	}
	return &Publisher{ch: ch}, nil
}

// Publish marshals the event to JSON and sends it with persistent delivery
// mode, then waits for the broker's confirmation.
func (p *Publisher) Publish(ctx context.Context, routingKey string, evt any) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return errors.Wrapf(err, "publish %s", routingKey)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "await confirm for %s", routingKey)
	}
	if !acked {
		return errors.Errorf("broker rejected %s", routingKey)
	}
	return nil
}
