// Package rabbit implements the event bus contracts over a RabbitMQ topic
// exchange. Events are JSON payloads routed by their event type; delivery
// to consumers is at-least-once with a dead-letter path after redelivery.
package rabbit

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// ExchangeName is the durable topic exchange all integration events
	// flow through.
	ExchangeName = "eshop.events"
	// DeadLetterExchange receives messages rejected after redelivery.
	DeadLetterExchange = "eshop.events.dlx"
	// DeadLetterQueue collects dead-lettered messages for inspection.
	DeadLetterQueue = "eshop.events.dead"

	dialAttempts = 5
	dialBackoff  = 2 * time.Second
)

// Conn bundles the AMQP connection and channel used by the publisher and
// subscriber, with the exchange topology declared.
type Conn struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to the broker with bounded retry (brokers routinely come up
// after the services in container environments) and declares the exchange
// topology.
func Dial(ctx context.Context, url string) (*Conn, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		zctx.From(ctx).Warn("RabbitMQ dial failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}

	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Conn{conn: conn, ch: ch}, nil
}

// declareTopology declares the event exchange, the dead-letter exchange,
// and the dead-letter queue. Declarations are idempotent.
func declareTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "declare exchange")
	}

	err = ch.ExchangeDeclare(
		DeadLetterExchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "declare dead-letter exchange")
	}

	q, err := ch.QueueDeclare(
		DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "declare dead-letter queue")
	}

	if err := ch.QueueBind(q.Name, "", DeadLetterExchange, false, nil); err != nil {
		return errors.Wrap(err, "bind dead-letter queue")
	}
	return nil
}

// channel opens a fresh AMQP channel. Channels are not safe for concurrent
// use, so the publisher and each subscriber get their own.
func (c *Conn) channel() (*amqp.Channel, error) {
	return c.conn.Channel()
}

// Ping reports whether the underlying connection is still open. Used by
// readiness checks.
func (c *Conn) Ping(context.Context) error {
	if c.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

// Close releases the channel and connection.
func (c *Conn) Close() error {
	if err := c.ch.Close(); err != nil {
		_ = c.conn.Close()
		return errors.Wrap(err, "close channel")
	}
	return errors.Wrap(c.conn.Close(), "close connection")
}
