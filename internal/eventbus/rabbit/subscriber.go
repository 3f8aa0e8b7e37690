package rabbit

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one delivered message body. Returning an error
// triggers broker-level redelivery; a second failure dead-letters the
// message.
type HandlerFunc func(ctx context.Context, body []byte) error

// Subscriber consumes messages from a durable queue bound to the event
// exchange.
type Subscriber struct {
	ch *amqp.Channel
}

// NewSubscriber opens a dedicated channel for consuming.
func NewSubscriber(c *Conn) (*Subscriber, error) {
	ch, err := c.channel()
	if err != nil {
		return nil, errors.Wrap(err, "open subscriber channel")
	}
	return &Subscriber{ch: ch}, nil
}

// Subscribe declares the durable queue, binds it to the routing key, and
// consumes until the context is cancelled. Messages are acked only after
// the handler succeeds; failed first deliveries are requeued, failed
// redeliveries go to the dead-letter exchange.
func (s *Subscriber) Subscribe(ctx context.Context, queue, routingKey string, handler HandlerFunc) error {
	q, err := s.ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-dead-letter-exchange": DeadLetterExchange},
	)
	if err != nil {
		return errors.Wrapf(err, "declare queue %s", queue)
	}

	if err := s.ch.QueueBind(q.Name, routingKey, ExchangeName, false, nil); err != nil {
		return errors.Wrapf(err, "bind queue %s to %s", queue, routingKey)
	}

	// Bound the number of unacked messages per consumer.
	if err := s.ch.Qos(16, 0, false); err != nil {
		return errors.Wrap(err, "set qos")
	}

	deliveries, err := s.ch.Consume(
		q.Name,
		"",    // consumer tag
		false, // auto-ack: we ack manually after the handler succeeds
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "consume %s", queue)
	}

	lg := zctx.From(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			s.handle(ctx, lg, d, handler)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, lg *zap.Logger, d amqp.Delivery, handler HandlerFunc) {
	if err := handler(ctx, d.Body); err != nil {
		// First failure requeues for one retry; a redelivered message
		// that fails again is dead-lettered.
		requeue := !d.Redelivered
		lg.Error("Message handler failed",
			zap.String("routing_key", d.RoutingKey),
			zap.Bool("requeue", requeue),
			zap.Error(err),
		)
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			lg.Error("Nack failed", zap.Error(nackErr))
		}
		return
	}

	if ackErr := d.Ack(false); ackErr != nil {
		lg.Error("Ack failed", zap.Error(ackErr))
	}
}
