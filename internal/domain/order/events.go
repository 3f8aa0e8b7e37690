package order

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds used for dispatcher registration.
const (
	KindOrderCreated = "order.created"
	KindOrderUpdated = "order.updated"
)

// DomainEvent is a fact recorded by an aggregate. Events are queued on the
// aggregate until the persistence layer drains and dispatches them at
// commit time.
type DomainEvent interface {
	// EventID uniquely identifies this occurrence.
	EventID() uuid.UUID
	// OccurredOn is the UTC time the event was recorded.
	OccurredOn() time.Time
	// Kind is the type tag used to route the event to handlers.
	Kind() string
}

// eventMeta implements the DomainEvent identity fields.
type eventMeta struct {
	id         uuid.UUID
	occurredOn time.Time
}

func newEventMeta() eventMeta {
	return eventMeta{id: uuid.New(), occurredOn: time.Now().UTC()}
}

func (m eventMeta) EventID() uuid.UUID    { return m.id }
func (m eventMeta) OccurredOn() time.Time { return m.occurredOn }

// Created is recorded exactly once when an order is constructed via Create.
type Created struct {
	eventMeta
	Order *Order
}

// Kind implements DomainEvent.
func (Created) Kind() string { return KindOrderCreated }

// Updated is recorded each time an order's header fields change via Update.
type Updated struct {
	eventMeta
	Order *Order
}

// Kind implements DomainEvent.
func (Updated) Kind() string { return KindOrderUpdated }
