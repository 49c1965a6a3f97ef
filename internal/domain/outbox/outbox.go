package outbox

import "context"

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

// Keyed events expose a partition key for transports that order by key.
type Keyed interface {
	EventKey() string
}

// Handler processes a published event.
type Handler func(ctx context.Context, e Event) error

// Publisher publishes events to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
