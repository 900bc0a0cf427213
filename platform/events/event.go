// Package events is the in-process publish/subscribe layer shared by the
// bounded contexts. Event types themselves live in internal/events.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event. EventName is the routing key.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by domain events to carry the publish time.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Handler reacts to one published event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events to the handlers subscribed to their name.
type Bus interface {
	// Publish delivers in the background. Handlers get a context detached
	// from the caller's cancellation.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers inline and joins the handler errors.
	PublishSync(ctx context.Context, event Event) error

	Subscribe(eventName string, handler Handler)
}

// SubscribeTo registers fn for the event type of prototype, usually the
// zero value of that type.
func SubscribeTo(bus Bus, prototype Event, fn HandlerFunc) {
	bus.Subscribe(prototype.EventName(), fn)
}
