// Package dispatch delivers domain events to in-process handlers at commit
// time. Handlers are registered statically at wiring time against an event
// kind tag; there is no reflection-based discovery.
package dispatch

import (
	"context"

	"github.com/go-faster/errors"
)

// Event is the minimal shape the dispatcher needs: a kind tag to route on.
// Domain event types satisfy it structurally.
type Event interface {
	Kind() string
}

// HandlerFunc processes a single dispatched event. An error aborts the
// in-flight save: the persistence layer rolls back the commit that drained
// the event.
type HandlerFunc func(ctx context.Context, e Event) error

// Registry maps event kinds to ordered handler lists. Register all handlers
// before use; Registry is not safe for concurrent registration, but Dispatch
// is safe to call from any goroutine once wiring is done.
type Registry struct {
	handlers map[string][]HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string][]HandlerFunc)}
}

// On appends handlers for the given event kind. Handlers run synchronously
// in registration order.
func (r *Registry) On(kind string, handlers ...HandlerFunc) {
	r.handlers[kind] = append(r.handlers[kind], handlers...)
}

// Dispatch delivers the events, in argument order, to the handlers
// registered for each event's kind. The first handler error stops delivery
// and is returned. Events with no registered handlers are skipped.
func (r *Registry) Dispatch(ctx context.Context, events ...Event) error {
	for _, e := range events {
		for _, h := range r.handlers[e.Kind()] {
			if err := h(ctx, e); err != nil {
				return errors.Wrapf(err, "dispatch %s", e.Kind())
			}
		}
	}
	return nil
}
